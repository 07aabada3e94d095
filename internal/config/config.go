package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	applog "boutique/internal/log"
)

const devJWTSecret = "boutique-dev-secret-change-me-in-production"

type Config struct {
	Port     string
	DBDriver string // sqlite | pgx | mysql
	DBDSN    string
	LogFile  string
	LogLevel string

	DBTimeout time.Duration
	DBRetries int

	JWTSecret string
	TokenTTL  time.Duration

	CORSOrigins       string
	RateLimit         int // requests per minute per IP
	LoginLimit        int // login attempts per 10 minutes per IP
	StoreName         string
	LowStockThreshold int
	StoreTZ           string
	Currency          string
	SeedDemo          bool

	OTLPEndpoint string
	ServiceName  string
}

func Load() Config {
	cfg := Config{
		Port:              getEnv("PORT", "8080"),
		DBDriver:          strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBDSN:             getEnv("DB_DSN", "boutique.db"), // sqlite file in project root
		LogFile:           os.Getenv("LOG_FILE"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DBTimeout:         getDuration("DB_TIMEOUT", 5*time.Second),
		DBRetries:         getInt("DB_RETRIES", 3),
		JWTSecret:         getEnv("JWT_SECRET", devJWTSecret),
		TokenTTL:          getDuration("TOKEN_TTL", 12*time.Hour),
		CORSOrigins:       getEnv("CORS_ORIGINS", "*"),
		RateLimit:         getInt("RATE_LIMIT", 120),
		LoginLimit:        getInt("LOGIN_RATE_LIMIT", 5),
		StoreName:         getEnv("STORE_NAME", "Boutique"),
		LowStockThreshold: getInt("LOW_STOCK_THRESHOLD", 5),
		StoreTZ:           getEnv("STORE_TZ", "UTC"),
		Currency:          getEnv("CURRENCY", "KES"),
		SeedDemo:          getBool("SEED_DEMO", true),
		OTLPEndpoint:      os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:       getEnv("SERVICE_NAME", "boutique"),
	}
	if _, set := os.LookupEnv("LOG_FILE"); !set {
		cfg.LogFile = "./boutique.log" // default log sink in project root
	}

	if cfg.JWTSecret == devJWTSecret {
		applog.L().Warn("config.jwt_secret.default")
	} else if len(cfg.JWTSecret) < 32 {
		applog.L().Warn("config.jwt_secret.short", zap.Int("len", len(cfg.JWTSecret)))
	}
	applog.L().Info("config.loaded",
		zap.String("port", cfg.Port),
		zap.String("db_driver", cfg.DBDriver),
		zap.String("db_dsn", redactDSN(cfg.DBDSN)),
		zap.String("log_file", cfg.LogFile),
		zap.String("store_tz", cfg.StoreTZ),
		zap.Bool("seed_demo", cfg.SeedDemo),
	)
	return cfg
}

// Location resolves StoreTZ, falling back to UTC.
func (c Config) Location() *time.Location {
	if c.StoreTZ == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.StoreTZ)
	if err != nil {
		applog.L().Warn("config.store_tz.unknown", zap.String("store_tz", c.StoreTZ))
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		applog.L().Warn("config.invalid", zap.String("key", key), zap.String("value", v), zap.Int("default", def))
		return def
	}
	return n
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		applog.L().Warn("config.invalid", zap.String("key", key), zap.String("value", v), zap.Bool("default", def))
		return def
	}
	return b
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		applog.L().Warn("config.invalid", zap.String("key", key), zap.String("value", v), zap.Duration("default", def))
		return def
	}
	return d
}

// redactDSN hides the password part of URL-style DSNs.
func redactDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	if at < 0 {
		return dsn
	}
	head := dsn[:at]
	if i := strings.LastIndex(head, ":"); i >= 0 && i > strings.Index(head, "//") {
		return head[:i+1] + "***" + dsn[at:]
	}
	return dsn
}
