// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"inventra/internal/app"
	"inventra/internal/infrastructure/http/v1/handlers"
	"inventra/internal/infrastructure/http/v1/middleware"
	"inventra/internal/infrastructure/metrics"
	"inventra/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Services is the engine the handlers call into.
	Services *app.Services

	// Logger for request logging
	Logger *logger.Logger

	// Metrics is optional; nil disables /metrics and request counters.
	Metrics *metrics.Metrics

	// Idempotency is optional; nil disables Idempotency-Key handling.
	Idempotency middleware.IdempotencyStore

	// HealthChecks are pinged by /health/ready.
	HealthChecks map[string]handlers.Pinger

	// Version is reported by /health/live.
	Version string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	log := cfg.Logger
	if log == nil {
		log = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!). Recovery sits inside ErrorHandler
	// so a panic still produces a JSON error body.
	router.Use(middleware.Trace())
	router.Use(middleware.Actor())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Metrics(cfg.Metrics))
	router.Use(middleware.ErrorHandler(cfg.Metrics))
	router.Use(middleware.Recovery())

	healthHandler := handlers.NewHealthHandler(cfg.Version, cfg.HealthChecks)
	health := router.Group("/health")
	{
		health.GET("", healthHandler.Live)
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	v1 := router.Group("/api/v1")
	if cfg.Idempotency != nil {
		v1.Use(middleware.Idempotency(cfg.Idempotency))
	}

	base := handlers.NewBaseHandler(cfg.Metrics)
	svc := cfg.Services

	handlers.NewPurchaseHandler(base, svc.Purchases).RegisterRoutes(v1.Group("/purchases"))
	handlers.NewTransferHandler(base, svc.Transfers).RegisterRoutes(v1.Group("/transfers"))
	handlers.NewProductHandler(base, svc).RegisterRoutes(v1.Group("/products"))
	handlers.NewBranchHandler(base, svc.Branches).RegisterRoutes(v1.Group("/branches"))
	handlers.NewPriceTypeHandler(base, svc.PriceTypes).RegisterRoutes(v1.Group("/price-types"))
	handlers.NewSupplierHandler(base, svc.Suppliers).RegisterRoutes(v1.Group("/suppliers"))

	return router
}
