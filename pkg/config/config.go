package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration
type Config struct {
	Environment string
	ServerPort  int
	LogLevel    string

	// Postgres
	DatabaseHost     string
	DatabasePort     int
	DatabaseUser     string
	DatabasePassword string
	DatabaseName     string
	DatabaseSSLMode  string

	// Redis (entitlement cache)
	RedisURL            string
	EntitlementCacheTTL time.Duration

	// External checkout provider; empty endpoint switches the payment
	// client to local session mode.
	PaymentProviderURL string
	PaymentCurrency    string

	JWTSecret     string
	TokenLifetime time.Duration

	CORSAllowedOrigins []string

	// Backfill reconciler
	BackfillIntervalMinutes int

	RateLimitPerMinute int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DATABASE_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DATABASE_PORT: %w", err)
	}

	cacheTTLSeconds, err := strconv.Atoi(getEnv("ENTITLEMENT_CACHE_TTL_SECONDS", "300"))
	if err != nil {
		return nil, fmt.Errorf("invalid ENTITLEMENT_CACHE_TTL_SECONDS: %w", err)
	}

	tokenMinutes, err := strconv.Atoi(getEnv("TOKEN_LIFETIME_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_LIFETIME_MINUTES: %w", err)
	}

	backfillInterval, err := strconv.Atoi(getEnv("BACKFILL_INTERVAL_MINUTES", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid BACKFILL_INTERVAL_MINUTES: %w", err)
	}

	rateLimit, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
	}

	return &Config{
		Environment:         getEnv("ENVIRONMENT", "development"),
		ServerPort:          port,
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DatabaseHost:        getEnv("DATABASE_HOST", "localhost"),
		DatabasePort:        dbPort,
		DatabaseUser:        getEnv("DATABASE_USER", "knowledgehub"),
		DatabasePassword:    getEnv("DATABASE_PASSWORD", "dev"),
		DatabaseName:        getEnv("DATABASE_NAME", "knowledgehub"),
		DatabaseSSLMode:     getEnv("DATABASE_SSLMODE", "disable"),
		RedisURL:            getEnv("REDIS_URL", "redis://localhost:6379"),
		EntitlementCacheTTL: time.Duration(cacheTTLSeconds) * time.Second,
		PaymentProviderURL:  getEnv("PAYMENT_PROVIDER_URL", ""),
		PaymentCurrency:     getEnv("PAYMENT_CURRENCY", "eur"),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		TokenLifetime:       time.Duration(tokenMinutes) * time.Minute,
		CORSAllowedOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:3000",
		}),
		BackfillIntervalMinutes: backfillInterval,
		RateLimitPerMinute:      rateLimit,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
