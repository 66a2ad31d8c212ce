package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/imocalc/imocalc/internal"
	"github.com/imocalc/imocalc/internal/calc"
	"github.com/imocalc/imocalc/internal/handler"
	"github.com/imocalc/imocalc/internal/middleware"
	"github.com/imocalc/imocalc/internal/quota"
	"github.com/imocalc/imocalc/internal/rates"
	"github.com/imocalc/imocalc/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	appmetrics "github.com/imocalc/imocalc/internal/metrics"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Load rate tables
	table, err := rates.Load()
	if err != nil {
		return fmt.Errorf("rate table load failed: %w", err)
	}
	logger.Info("Rate tables loaded", "regions", len(table.Regions()))

	// Initialize the quota counter store
	var store quota.CounterStore
	switch cfg.QuotaStore {
	case internal.StorePostgres:
		// goose needs database/sql; the store itself runs on pgxpool.
		migrationDB, err := sql.Open("pgx", cfg.DatabaseUrl)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		if err := internal.RunMigrations(migrationDB); err != nil {
			migrationDB.Close()
			return fmt.Errorf("migration failed: %w", err)
		}
		migrationDB.Close()

		pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
		if err != nil {
			return fmt.Errorf("database pool failed: %w", err)
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}
		store = repository.NewUsageStore(pool)
		logger.Info("Quota store ready", "backend", "postgres")

	case internal.StoreRedis:
		opts, err := redis.ParseURL(cfg.RedisUrl)
		if err != nil {
			return fmt.Errorf("redis url invalid: %w", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
		store = quota.NewRedisStore(client)
		logger.Info("Quota store ready", "backend", "redis")

	default:
		store = quota.NewMemoryStore()
		logger.Warn("Quota store is in-memory; counters reset on restart")
	}

	// Initialize quota enforcement
	enforcer := quota.NewEnforcer(store, logger)
	defer enforcer.Close()

	// Sweep expired daily counters in the background
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				deleted, err := enforcer.Sweep(sweepCtx)
				if err != nil {
					logger.Error("Quota sweep failed", "error", err)
					continue
				}
				if deleted > 0 {
					logger.Info("Quota sweep complete", "deleted", deleted)
				}
			}
		}
	}()

	// Initialize handlers
	calculatorHandler := handler.NewCalculatorHandler(
		calc.NewValidator(table),
		calc.NewEngine(table),
		enforcer,
		logger,
	)
	regionHandler := handler.NewRegionHandler(table, logger)

	// Initialize middleware
	isSecure := cfg.Env != "development"
	callerMw := middleware.NewCallerMiddleware(logger, isSecure)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	securityMw := middleware.NewSecurityHeadersMiddleware(isSecure)
	metricsAuthMw := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics (basic auth when credentials are configured)
	mux.Handle("GET /metrics", metricsAuthMw.Handler(promhttp.Handler()))

	// Calculator API
	mux.HandleFunc("POST /api/v1/calculators/{type}", calculatorHandler.Calculate)
	mux.HandleFunc("GET /api/v1/usage", calculatorHandler.Usage)
	mux.HandleFunc("GET /api/v1/regions", regionHandler.List)
	mux.HandleFunc("GET /api/v1/regions/{code}", regionHandler.Get)

	chain := middleware.Stack(
		securityMw.Handler,
		loggingMw.Handler,
		appmetrics.Middleware,
		callerMw.Resolve,
	)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           chain(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env, "quota_store", cfg.QuotaStore)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
