// Package main is the entry point for the invoice API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	corenumerator "github.com/mohit-ihs-314/invoice-backend/internal/core/numerator"
	"github.com/mohit-ihs-314/invoice-backend/internal/domain/invoice"
	v1 "github.com/mohit-ihs-314/invoice-backend/internal/infrastructure/http/v1"
	"github.com/mohit-ihs-314/invoice-backend/internal/infrastructure/numerator"
	"github.com/mohit-ihs-314/invoice-backend/internal/infrastructure/storage/postgres"
	"github.com/mohit-ihs-314/invoice-backend/internal/infrastructure/storage/postgres/invoice_repo"
	"github.com/mohit-ihs-314/invoice-backend/pkg/logger"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting invoice backend")

	// --- Database connection ---
	poolCfg := postgres.DefaultPoolConfig(databaseDSN())
	poolCfg.ConnectTimeout = getEnvDuration("DB_CONNECT_TIMEOUT", 30*time.Second)

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Counter store + numbering service ---
	policy := postgres.SeedAuto
	if getEnv("NUMERATOR_STRICT", "false") == "true" {
		policy = postgres.SeedStrict
	}
	counterStore := postgres.NewCounterStore(pool, policy)

	// Every known document type gets a counter row before first allocation.
	if err := counterStore.Seed(ctx, corenumerator.KnownTypes()); err != nil {
		log.Fatalw("failed to seed counters", "error", err)
	}
	log.Infow("counters seeded", "types", corenumerator.KnownTypes())

	numeratorService := numerator.New(counterStore)

	// --- Invoice service ---
	invoiceRepo := invoice_repo.NewInvoiceRepo(txManager)
	invoiceService := invoice.NewService(invoiceRepo, numeratorService, txManager)

	// --- Idempotency (optional) ---
	var idempotencyStore *postgres.IdempotencyStore
	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	if getEnv("IDEMPOTENCY_ENABLED", "false") == "true" {
		ttl := getEnvDuration("IDEMPOTENCY_TTL", 10*time.Minute)
		idempotencyStore = postgres.NewIdempotencyStore(txManager, ttl)

		// Expired replay records are purged in the background so the
		// table does not grow for the lifetime of the process.
		go runIdempotencyCleanup(cleanupCtx, idempotencyStore, ttl, log)
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:             pool,
		Logger:           log,
		InvoiceService:   invoiceService,
		IdempotencyStore: idempotencyStore,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// runIdempotencyCleanup periodically deletes expired replay records.
// The interval tracks the TTL, bounded to stay responsive on long TTLs
// and unaggressive on short ones.
func runIdempotencyCleanup(ctx context.Context, store *postgres.IdempotencyStore, ttl time.Duration, log *logger.Logger) {
	interval := ttl
	if interval < time.Minute {
		interval = time.Minute
	}
	if interval > time.Hour {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.CleanupExpired(ctx)
			if err != nil {
				log.Warnw("idempotency cleanup failed", "error", err)
				continue
			}
			if removed > 0 {
				log.Debugw("idempotency records purged", "count", removed)
			}
		}
	}
}

// databaseDSN builds the connection string from DATABASE_URL or the
// individual DB_* variables.
func databaseDSN() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}

	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	pass := os.Getenv("DB_PASS")
	name := getEnv("DB_NAME", "invoices")

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		url.QueryEscape(user), url.QueryEscape(pass), host, port, name)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	// Plain integers are treated as seconds (e.g. DB_CONNECT_TIMEOUT=30).
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultVal
}
