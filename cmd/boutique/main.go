package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"boutique/internal/config"
	"boutique/internal/http/handlers"
	applog "boutique/internal/log"
	"boutique/internal/repos"
	"boutique/internal/services"
	"boutique/internal/telemetry"
)

var version = "dev"

func main() {
	cfg := config.Load()

	closeLog, err := applog.Init(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		applog.L().Fatal("log.init", zap.Error(err))
	}
	defer func() { _ = closeLog() }()
	log := applog.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Version:     version,
	})
	if err != nil {
		log.Fatal("telemetry.setup", zap.Error(err))
	}

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal("db.open", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer db.Close()
	if cfg.SeedDemo {
		if err := repos.SeedDemoCatalog(ctx, db); err != nil {
			log.Fatal("db.seed_demo", zap.Error(err))
		}
	}

	svc := services.New(db, services.AuthConfig{
		Secret:   cfg.JWTSecret,
		TokenTTL: cfg.TokenTTL,
	}, services.Options{
		DBTimeout:         cfg.DBTimeout,
		Retries:           cfg.DBRetries,
		LowStockThreshold: cfg.LowStockThreshold,
		Location:          cfg.Location(),
	})

	app := handlers.NewApp(svc, cfg)

	go func() {
		<-ctx.Done()
		log.Info("server.shutdown")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("server.shutdown", zap.Error(err))
		}
	}()

	log.Info("server.start", zap.String("addr", ":"+cfg.Port), zap.String("version", version))
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error("server.listen", zap.Error(err))
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTelemetry(flushCtx); err != nil {
		log.Warn("telemetry.shutdown", zap.Error(err))
	}
}
