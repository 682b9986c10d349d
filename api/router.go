package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/use-agent/shopsnap/api/handler"
	"github.com/use-agent/shopsnap/api/middleware"
	"github.com/use-agent/shopsnap/config"
	"github.com/use-agent/shopsnap/jobs"
)

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Config    *config.Config
	Store     jobs.Store
	Runner    handler.JobRunner
	History   handler.HistoryReader // nil disables /api/history
	Logger    *slog.Logger
	StartTime time.Time
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → CORS → Metrics
//	API:     Auth (if enabled) → RateLimit
//
// /health and /metrics sit outside auth so probes and scrapers always work.
// ctx bounds the rate limiter's background eviction.
func NewRouter(ctx context.Context, d Deps) *gin.Engine {
	gin.SetMode(d.Config.Server.Mode)
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.CORS(d.Config.Server.CORSOrigins))
	r.Use(middleware.Metrics())

	r.GET("/health", handler.Health(d.StartTime))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	if d.Config.Auth.Enabled {
		api.Use(middleware.Auth(d.Config.Auth.APIKeys))
	}
	api.Use(middleware.RateLimit(ctx, d.Config.RateLimit))

	api.POST("/scrape", handler.Submit(d.Runner))
	api.GET("/scrape/:id", handler.GetJob(d.Store))
	api.GET("/scrape/:id/download", handler.Download(d.Store, d.Runner))
	api.GET("/scrape/:id/images/:filename", handler.Image(d.Store, d.Runner))

	if d.History != nil {
		api.GET("/history", handler.History(d.History))
	}

	return r
}
