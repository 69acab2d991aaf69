// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"flowmetrics/internal/domain/flow"
	"flowmetrics/internal/domain/wiql"
	"flowmetrics/internal/infrastructure/http/v1/handlers"
	"flowmetrics/internal/infrastructure/http/v1/middleware"
	"flowmetrics/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Service coordinates queries, fetching and reports
	Service *flow.Service

	// FieldRegistry backs the fields endpoints
	FieldRegistry *wiql.Registry

	// DB is pinged by the readiness endpoint, may be nil
	DB handlers.Pinger

	// Logger for request logging
	Logger *logger.Logger

	// AuthSecret enables JWT auth on /api/v1 when non-empty
	AuthSecret string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.RequestLogger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.DB)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	// API v1
	api := router.Group("/api/v1")
	if cfg.AuthSecret != "" {
		api.Use(middleware.Auth(cfg.AuthSecret))
	}

	baseHandler := handlers.NewBaseHandler()

	queryHandler := handlers.NewQueryHandler(baseHandler, cfg.Service)
	query := api.Group("/query")
	{
		query.POST("/validate", queryHandler.Validate)
		query.POST("/build", queryHandler.Build)
	}

	fieldsHandler := handlers.NewFieldsHandler(baseHandler, cfg.FieldRegistry)
	fields := api.Group("/fields")
	{
		fields.GET("", fieldsHandler.List)
		fields.GET("/:name", fieldsHandler.Get)
	}

	reportHandler := handlers.NewReportHandler(baseHandler, cfg.Service)
	api.GET("/reports/flow", reportHandler.Flow)

	return router
}
