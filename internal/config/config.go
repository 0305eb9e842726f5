// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DefaultLowStockRule flags products whose stock fell to their alert threshold.
const DefaultLowStockRule = "stockQuantity <= lowStockAlert"

// Config is the full server configuration.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL string
	DBMaxConns  int32

	// RedisURL is optional; payment status is kept in memory when empty.
	RedisURL string

	JWTSecret string
	JWTTTL    time.Duration

	AdminUsername string
	AdminPassword string

	BillsDir     string
	BillMaxBytes int64

	LowStockRule string

	ShutdownTimeout time.Duration
}

// IsDevelopment reports whether the server runs in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from the environment.
// It fails when a required variable is missing.
func Load() (Config, error) {
	cfg := Config{
		Port:            getEnv("APP_PORT", "8080"),
		Env:             getEnv("APP_ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		DBMaxConns:      int32(getEnvInt("DB_MAX_CONNS", 25)),
		RedisURL:        os.Getenv("REDIS_URL"),
		JWTSecret:       getEnv("JWT_SECRET", "change-me-in-production"),
		JWTTTL:          getEnvDuration("JWT_TTL", 15*time.Minute),
		AdminUsername:   getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:   getEnv("ADMIN_PASSWORD", "admin123"),
		BillsDir:        getEnv("BILLS_DIR", "./uploads"),
		BillMaxBytes:    int64(getEnvInt("BILL_MAX_BYTES", 5<<20)),
		LowStockRule:    getEnv("LOW_STOCK_RULE", DefaultLowStockRule),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("required environment variable DATABASE_URL not set")
	}
	if cfg.DBMaxConns <= 0 {
		return Config{}, fmt.Errorf("DB_MAX_CONNS must be positive, got %d", cfg.DBMaxConns)
	}
	if cfg.BillMaxBytes <= 0 {
		return Config{}, fmt.Errorf("BILL_MAX_BYTES must be positive, got %d", cfg.BillMaxBytes)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
