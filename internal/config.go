package internal

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Counter store backends for the quota enforcer.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type Config struct {
	Env      string
	Port     int
	LogLevel string

	// Quota counter store backend: "memory", "postgres" or "redis".
	// Memory is for development only; counters reset on restart.
	QuotaStore  string
	DatabaseUrl string // Required when QuotaStore is "postgres"
	RedisUrl    string // Required when QuotaStore is "redis"

	// How often expired daily counters are swept from the store.
	SweepInterval time.Duration

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		QuotaStore:  getEnv("QUOTA_STORE", StoreMemory),
		DatabaseUrl: getEnv("DATABASE_URL", ""),
		RedisUrl:    getEnv("REDIS_URL", ""),

		SweepInterval: getEnvDuration("QUOTA_SWEEP_INTERVAL", 1*time.Hour),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	// Validate quota store configuration
	switch cfg.QuotaStore {
	case StoreMemory:
		// No backing service required.
	case StorePostgres:
		if cfg.DatabaseUrl == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when QUOTA_STORE is 'postgres'")
		}
	case StoreRedis:
		if cfg.RedisUrl == "" {
			return nil, fmt.Errorf("REDIS_URL is required when QUOTA_STORE is 'redis'")
		}
	default:
		return nil, fmt.Errorf("QUOTA_STORE must be 'memory', 'postgres' or 'redis', got: %s", cfg.QuotaStore)
	}

	if cfg.SweepInterval < time.Minute {
		return nil, fmt.Errorf("QUOTA_SWEEP_INTERVAL must be at least 1m, got: %s", cfg.SweepInterval)
	}

	if cfg.Env == "production" && cfg.QuotaStore == StoreMemory {
		return nil, fmt.Errorf("QUOTA_STORE 'memory' is not allowed in production")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
