// Package api exposes the read-side HTTP surface: reports on demand,
// headline and session queries, stats, and operational health.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/trendwatch/internal/config"
	"github.com/jonesrussell/trendwatch/internal/logger"
	"github.com/jonesrussell/trendwatch/internal/metrics"
	"github.com/jonesrussell/trendwatch/internal/models"
	redisclient "github.com/jonesrussell/trendwatch/internal/redis"
	"github.com/jonesrussell/trendwatch/internal/search"
)

const (
	healthStatusHealthy  = "healthy"
	healthStatusDegraded = "degraded"
	healthCheckTimeout   = 2 * time.Second
)

// Store is the slice of the persistence surface the API reads from.
type Store interface {
	ListSources(ctx context.Context, activeOnly bool) ([]models.Source, error)
	GetHeadline(ctx context.Context, id uuid.UUID) (*models.Headline, error)
	HeadlinesSince(ctx context.Context, filter *models.HeadlineFilter) ([]models.Headline, error)
	OccurrencesFor(ctx context.Context, headlineID uuid.UUID, limit int) ([]models.Occurrence, error)
	LatestSession(ctx context.Context) (*models.CrawlSession, error)
	ListSessions(ctx context.Context, limit int) ([]models.CrawlSession, error)
	ActiveWordGroups(ctx context.Context) ([]models.WordGroup, error)
	DailyStats(ctx context.Context, from, to time.Time) ([]models.DailyStat, error)
	ListPushes(ctx context.Context, limit int) ([]models.PushRecord, error)
	Ping(ctx context.Context) error
}

// Reporter generates reports on demand.
type Reporter interface {
	Generate(ctx context.Context, mode models.ReportMode, asOf time.Time) (*models.Report, error)
}

// Searcher answers keyword queries from the search index.
type Searcher interface {
	SearchTitles(ctx context.Context, keyword string, since time.Time, limit int) ([]search.Document, error)
	Ping(ctx context.Context) error
}

// Deps collects the router's collaborators. Searcher, Redis, and Activity
// are optional; the endpoints backed by them degrade rather than fail when
// they are absent.
type Deps struct {
	Store    Store
	Reporter Reporter
	Searcher Searcher
	Redis    redis.UniversalClient
	Activity *metrics.Tracker
	Gatherer prometheus.Gatherer
	Version  string
}

// Router holds the API dependencies
type Router struct {
	store    Store
	reporter Reporter
	searcher Searcher
	redis    redis.UniversalClient
	activity *metrics.Tracker
	gatherer prometheus.Gatherer
	version  string
	cfg      config.ServerConfig
	log      logger.Logger
}

// NewRouter creates a new API router
func NewRouter(deps Deps, cfg config.ServerConfig, log logger.Logger) *Router {
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}
	return &Router{
		store:    deps.Store,
		reporter: deps.Reporter,
		searcher: deps.Searcher,
		redis:    deps.Redis,
		activity: deps.Activity,
		gatherer: deps.Gatherer,
		version:  deps.Version,
		cfg:      cfg,
		log:      log,
	}
}

// SetupRoutes builds the gin engine with all endpoints registered.
func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(r.cfg.CORSOrigins)) // Defined in middleware.go

	// Health check and metrics (public, no auth)
	router.GET("/health", r.healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")

	// Reports
	v1.GET("/reports/:mode", r.getReport)

	// Headlines
	headlines := v1.Group("/headlines")
	headlines.GET("", r.listHeadlines)
	headlines.GET("/:id", r.getHeadline)
	headlines.GET("/:id/occurrences", r.listOccurrences)

	// Crawl sessions
	sessions := v1.Group("/sessions")
	sessions.GET("/latest", r.getLatestSession)
	sessions.GET("", r.listSessions)

	// Word groups and sources
	v1.GET("/word-groups", r.listWordGroups)
	v1.GET("/sources", r.listSources)

	// Stats
	stats := v1.Group("/stats")
	stats.GET("/daily", r.getDailyStats)
	stats.GET("/activity", r.getActivity)

	// Push history
	v1.GET("/pushes", r.listPushes)

	return router
}

// healthCheck returns the service health status
func (r *Router) healthCheck(c *gin.Context) {
	health := gin.H{
		"status":  healthStatusHealthy,
		"service": "trendwatch",
		"version": r.version,
	}

	// Check database connection with timeout
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	dbConnected := true
	if err := r.store.Ping(ctx); err != nil {
		dbConnected = false
		health["status"] = healthStatusDegraded
	}
	health["database"] = gin.H{
		"connected": dbConnected,
	}

	// Check Redis connection
	redisHealth := r.checkRedisHealth(ctx)
	health["redis"] = redisHealth

	// Update status if Redis is configured but not answering
	if connected, ok := redisHealth["connected"].(bool); ok && !connected {
		if health["status"] == healthStatusHealthy {
			health["status"] = healthStatusDegraded
		}
	}

	// Search is optional and falls back to storage, so it never degrades
	// the overall status.
	health["search"] = r.checkSearchHealth(ctx)

	c.JSON(http.StatusOK, health)
}

// checkRedisHealth checks Redis connection and returns health info.
// An absent client means redis was never configured, which is not an error.
func (r *Router) checkRedisHealth(ctx context.Context) gin.H {
	if r.redis == nil {
		return gin.H{
			"configured": false,
		}
	}

	connected, err := redisclient.CheckConnection(ctx, r.redis)
	redisHealth := gin.H{
		"configured": true,
		"connected":  connected,
	}
	if err != nil {
		redisHealth["error"] = err.Error()
	}

	return redisHealth
}

// checkSearchHealth checks search index connectivity and returns health info
func (r *Router) checkSearchHealth(ctx context.Context) gin.H {
	if r.searcher == nil {
		return gin.H{
			"configured": false,
		}
	}

	searchHealth := gin.H{
		"configured": true,
		"connected":  true,
	}
	if err := r.searcher.Ping(ctx); err != nil {
		searchHealth["connected"] = false
	}

	return searchHealth
}
