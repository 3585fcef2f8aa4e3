package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/sieve/api/handler"
	"github.com/use-agent/sieve/api/middleware"
	"github.com/use-agent/sieve/config"
)

// Deps are the long-lived services the routes need.
type Deps struct {
	Extractor handler.Extractor
	// Sessions is nil when browser tiers are disabled.
	Sessions  handler.SessionCounter
	Batches   *handler.BatchStore
	StartTime time.Time
}

// NewRouter creates a configured Gin engine with all routes and middleware.
// Background goroutines started here stop when ctx is done.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health is outside auth so monitoring probes always work.
func NewRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	opts := handler.Options{
		Readability:    cfg.Extract.Readability,
		DefaultTimeout: cfg.Server.RequestTimeout,
		MaxTimeout:     cfg.Server.MaxRequestTimeout,
	}

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(deps.Sessions, deps.StartTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(ctx, cfg.RateLimit))

	protected.POST("/extract", handler.Extract(deps.Extractor, opts))

	protected.POST("/batch/extract", handler.PostBatch(deps.Batches, deps.Extractor, opts))
	protected.GET("/batch/:id", handler.GetBatch(deps.Batches))

	return r
}
