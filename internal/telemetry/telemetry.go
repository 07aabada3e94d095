// Package telemetry wires OpenTelemetry tracing and metrics. With no OTLP
// endpoint configured the global no-op providers stay in place.
package telemetry

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	applog "boutique/internal/log"
)

const instrumentation = "boutique"

type Config struct {
	Endpoint    string // host:port of an OTLP/HTTP collector
	ServiceName string
	Version     string
}

// Setup installs global providers and returns a func that flushes and stops them.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if cfg.Endpoint == "" {
		applog.L().Info("telemetry.disabled")
		return func(context.Context) error { return nil }, nil
	}
	// accept the URL form of OTEL_EXPORTER_OTLP_ENDPOINT too
	cfg.Endpoint = strings.TrimSuffix(strings.TrimPrefix(cfg.Endpoint, "http://"), "/")
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.Version),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExp, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)

	metricExp, err := otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
		otlpmetrichttp.WithInsecure(),
	)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	applog.L().Info("telemetry.enabled", zap.String("endpoint", cfg.Endpoint))

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}

func Tracer() trace.Tracer { return otel.Tracer(instrumentation) }

// Metrics holds the business counters.
type Metrics struct {
	Sales          metric.Int64Counter
	UnitsSold      metric.Int64Counter
	UnitsRestocked metric.Int64Counter
}

// NewMetrics registers counters on the current global meter provider.
func NewMetrics() (*Metrics, error) {
	return NewMetricsFrom(otel.GetMeterProvider())
}

func NewMetricsFrom(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(instrumentation)
	sales, err := meter.Int64Counter("boutique.sales",
		metric.WithDescription("Completed sales"))
	if err != nil {
		return nil, err
	}
	sold, err := meter.Int64Counter("boutique.units_sold",
		metric.WithDescription("Units removed from stock by sales"), metric.WithUnit("{unit}"))
	if err != nil {
		return nil, err
	}
	restocked, err := meter.Int64Counter("boutique.units_restocked",
		metric.WithDescription("Units added to stock"), metric.WithUnit("{unit}"))
	if err != nil {
		return nil, err
	}
	return &Metrics{Sales: sales, UnitsSold: sold, UnitsRestocked: restocked}, nil
}
