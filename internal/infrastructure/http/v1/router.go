// Package v1 provides the HTTP API.
package v1

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mohit-ihs-314/invoice-backend/internal/infrastructure/http/v1/handlers"
	"github.com/mohit-ihs-314/invoice-backend/internal/infrastructure/http/v1/middleware"
	"github.com/mohit-ihs-314/invoice-backend/internal/infrastructure/storage/postgres"
	"github.com/mohit-ihs-314/invoice-backend/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool (health checks, idempotency)
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	// InvoiceService backs the invoice endpoints
	InvoiceService handlers.InvoiceService

	// IdempotencyStore, when non-nil, enables the X-Idempotency-Key
	// middleware on mutating routes
	IdempotencyStore *postgres.IdempotencyStore
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", middleware.HeaderIdempotencyKey},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Invoice API Running 🚀")
	})

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// Invoice endpoints live at the root, matching the original API surface.
	api := router.Group("")
	if cfg.IdempotencyStore != nil {
		api.Use(middleware.Idempotency(cfg.IdempotencyStore))
	}

	baseHandler := handlers.NewBaseHandler()
	invoiceHandler := handlers.NewInvoiceHandler(baseHandler, cfg.InvoiceService)
	invoiceHandler.RegisterRoutes(api)

	return router
}
