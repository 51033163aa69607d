// Package app provides the main application lifecycle management for the
// trendwatch service: configuration, storage, the crawl/report/push
// pipeline, and the HTTP API are wired here.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/trendwatch/internal/api"
	"github.com/jonesrussell/trendwatch/internal/config"
	"github.com/jonesrussell/trendwatch/internal/crawl"
	"github.com/jonesrussell/trendwatch/internal/database"
	"github.com/jonesrussell/trendwatch/internal/fetch"
	"github.com/jonesrussell/trendwatch/internal/filter"
	"github.com/jonesrussell/trendwatch/internal/logger"
	"github.com/jonesrussell/trendwatch/internal/metrics"
	"github.com/jonesrussell/trendwatch/internal/models"
	"github.com/jonesrussell/trendwatch/internal/push"
	redisclient "github.com/jonesrussell/trendwatch/internal/redis"
	"github.com/jonesrussell/trendwatch/internal/report"
	"github.com/jonesrussell/trendwatch/internal/scheduler"
	"github.com/jonesrussell/trendwatch/internal/search"
	"github.com/jonesrussell/trendwatch/internal/sqlite"
	"github.com/jonesrussell/trendwatch/internal/storage"
	"github.com/jonesrussell/trendwatch/internal/tracker"
	"github.com/jonesrussell/trendwatch/internal/words"
)

const (
	// DefaultShutdownTimeout is the default timeout for graceful shutdown
	DefaultShutdownTimeout = 30 * time.Second
	// wordReloadTimeout bounds one watcher-triggered word file resync
	wordReloadTimeout = 15 * time.Second
)

// App represents the trendwatch application with all its dependencies
type App struct {
	cfg        *config.Config
	log        logger.Logger
	store      storage.Store
	redis      *redis.Client // nil when redis is not configured
	collectors *metrics.Collectors
	activity   *metrics.Tracker // nil when redis is not configured
	engine     *filter.Engine
	wordsSvc   *words.Service
	watcher    *words.Watcher // nil unless words.watch
	manager    *crawl.Manager
	generator  *report.Generator
	dispatcher *push.Dispatcher // nil when push is disabled
	mirror     *search.Mirror   // nil when search is disabled
	sched      *scheduler.Scheduler
	httpServer *http.Server
	version    string
}

// Options contains configuration for creating a new App
type Options struct {
	ConfigPath string
	Version    string
	Debug      bool // forces debug logging regardless of config
}

// New creates a new App instance with all dependencies initialized
func New(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.Debug {
		cfg.Debug = true
	}

	appLogger, err := logger.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	appLogger = appLogger.With(
		logger.String("service", "trendwatch"),
		logger.String("version", opts.Version),
	)

	app, err := build(cfg, appLogger, opts.Version)
	if err != nil {
		_ = appLogger.Sync()
		return nil, err
	}
	return app, nil
}

// build wires every component from configuration. Optional pieces (redis,
// push, search) stay nil when not configured; interface fields downstream
// are only assigned from non-nil concretes so their nil checks keep working.
func build(cfg *config.Config, log logger.Logger, version string) (*App, error) {
	store, err := openStore(cfg.Database)
	if err != nil {
		return nil, err
	}

	var (
		redisClient *redis.Client
		activity    *metrics.Tracker
	)
	if cfg.Redis.URL != "" {
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		activity = metrics.NewTracker(redisClient, log)
	} else {
		log.Warn("redis not configured, push suppression and activity tracking disabled")
	}

	collectors := metrics.NewCollectors(nil)

	engine := filter.NewEngine(nil, log)
	wordsSvc := words.NewService(store, engine, log)

	var watcher *words.Watcher
	if cfg.Words.Watch {
		watcher, err = words.NewWatcher(cfg.Words.File, func() {
			reloadCtx, cancel := context.WithTimeout(context.Background(), wordReloadTimeout)
			defer cancel()
			if syncErr := wordsSvc.SyncFromFile(reloadCtx, cfg.Words.File); syncErr != nil {
				log.Error("failed to reload word groups", logger.Error(syncErr))
			}
		}, log)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to watch word file: %w", err)
		}
	}

	registry, err := fetch.NewRegistry(cfg.Sources, cfg.Crawl.UserAgent, cfg.Crawl.Timeout)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to build source registry: %w", err)
	}
	fetcher := fetch.NewClient(registry, cfg.Crawl, log)
	recorder := tracker.NewTracker(store, log)
	manager := crawl.NewManager(store, fetcher, recorder, collectors, activity, cfg.Crawl.Workers, log)

	generator := report.NewGenerator(store, engine, cfg.Report, log)

	var dispatcher *push.Dispatcher
	if cfg.Push.Enabled {
		channel, chanErr := push.NewWebhookChannel(cfg.Push, log)
		if chanErr != nil {
			_ = store.Close()
			return nil, chanErr
		}
		var signatures *push.SignatureStore
		if redisClient != nil {
			signatures = push.NewSignatureStore(redisClient, cfg.Push.SignatureTTL)
		}
		dispatcher = push.NewDispatcher(store, channel, signatures, collectors, activity, cfg.Push, log)
	}

	var mirror *search.Mirror
	var indexer *search.Indexer
	if cfg.Search.Enabled {
		esClient, esErr := search.NewClient(cfg.Search)
		if esErr != nil {
			log.Warn("search index unavailable, continuing without it", logger.Error(esErr))
		} else {
			indexer = search.NewIndexer(esClient, cfg.Search.Index, log)
			mirror = search.NewMirror(indexer, store, log)
		}
	}

	var pusher scheduler.Pusher
	if dispatcher != nil {
		pusher = dispatcher
	}
	var sessionMirror scheduler.SessionMirror
	if mirror != nil {
		sessionMirror = mirror
	}
	sched, err := scheduler.New(manager, generator, pusher, sessionMirror, store, cfg.Scheduler, cfg.Report, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	deps := api.Deps{
		Store:    store,
		Reporter: generator,
		Activity: activity,
		Gatherer: prometheus.DefaultGatherer,
		Version:  version,
	}
	if redisClient != nil {
		deps.Redis = redisClient
	}
	if indexer != nil {
		deps.Searcher = indexer
	}
	router := api.NewRouter(deps, cfg.Server, log)
	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &App{
		cfg:        cfg,
		log:        log,
		store:      store,
		redis:      redisClient,
		collectors: collectors,
		activity:   activity,
		engine:     engine,
		wordsSvc:   wordsSvc,
		watcher:    watcher,
		manager:    manager,
		generator:  generator,
		dispatcher: dispatcher,
		mirror:     mirror,
		sched:      sched,
		httpServer: httpServer,
		version:    version,
	}, nil
}

// openStore builds the configured storage backend
func openStore(cfg config.DatabaseConfig) (storage.Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return sqlite.NewRepository(db), nil
	default:
		db, err := database.NewPostgresConnection(database.Config{
			DSN:             cfg.DSN(),
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		return database.NewRepository(db), nil
	}
}

// Bootstrap reconciles the configured sources and word groups with storage
// and primes the matching engine. Safe to run repeatedly.
func (a *App) Bootstrap(ctx context.Context) error {
	upserts := make([]models.SourceUpsert, 0, len(a.cfg.Sources))
	for i := range a.cfg.Sources {
		src := &a.cfg.Sources[i]
		upserts = append(upserts, models.SourceUpsert{
			PlatformID: src.PlatformID,
			Name:       src.Name,
			Adapter:    src.Adapter,
			Endpoint:   src.Endpoint,
			IsActive:   src.IsActiveOrDefault(),
		})
	}
	if err := a.store.SyncSources(ctx, upserts); err != nil {
		return fmt.Errorf("failed to sync sources: %w", err)
	}
	a.log.Info("sources synced", logger.Int("count", len(upserts)))

	if _, statErr := os.Stat(a.cfg.Words.File); statErr == nil {
		if err := a.wordsSvc.SyncFromFile(ctx, a.cfg.Words.File); err != nil {
			return err
		}
		return nil
	}

	// No word file on disk; run with whatever groups storage already has.
	groups, err := a.store.ActiveWordGroups(ctx)
	if err != nil {
		return fmt.Errorf("failed to load word groups: %w", err)
	}
	a.engine.UpdateGroups(groups)
	a.log.Warn("word file missing, using stored word groups",
		logger.String("file", a.cfg.Words.File),
		logger.Int("groups", len(groups)),
	)
	return nil
}

// Run starts the scheduler and HTTP server and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	if err := a.Bootstrap(ctx); err != nil {
		return err
	}

	if a.watcher != nil {
		if err := a.watcher.Start(ctx); err != nil {
			return fmt.Errorf("failed to start word watcher: %w", err)
		}
	}

	if err := a.sched.Start(); err != nil {
		return err
	}

	serverErr := make(chan error, 1)
	go func() {
		a.log.Info("HTTP server listening",
			logger.String("address", a.cfg.Server.Address),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	return a.waitForShutdown(ctx, serverErr)
}

// waitForShutdown handles graceful shutdown
func (a *App) waitForShutdown(ctx context.Context, serverErr chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigChan:
		a.log.Info("shutting down gracefully",
			logger.String("signal", sig.String()),
		)
	case <-ctx.Done():
		a.log.Info("shutting down, context done")
	case err := <-serverErr:
		if err != nil {
			a.log.Error("HTTP server failed", logger.Error(err))
			runErr = err
		}
	}

	a.shutdown()
	a.log.Info("service stopped")
	return runErr
}

// shutdown stops the HTTP server, word watcher, and scheduler in order
func (a *App) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.log.Error("HTTP server shutdown error", logger.Error(err))
	} else {
		a.log.Info("HTTP server stopped")
	}

	if a.watcher != nil {
		if err := a.watcher.Stop(); err != nil {
			a.log.Warn("word watcher stop error", logger.Error(err))
		}
	}

	a.sched.Stop()
}

// CrawlOnce runs a single crawl round outside the scheduler and mirrors the
// session into the search index when one is wired.
func (a *App) CrawlOnce(ctx context.Context) (*models.CrawlSession, error) {
	if err := a.Bootstrap(ctx); err != nil {
		return nil, err
	}

	session, err := a.manager.Run(ctx)
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionStatusCompleted {
		if mirrorErr := a.mirror.MirrorSession(ctx, session); mirrorErr != nil {
			a.log.Warn("failed to mirror session into search index", logger.Error(mirrorErr))
		}
	}
	return session, nil
}

// GenerateReport builds a report for mode and optionally dispatches it.
// The returned push record is nil when pushing was not requested or the
// report was suppressed as repeat content.
func (a *App) GenerateReport(ctx context.Context, mode models.ReportMode, doPush bool) (*models.Report, *models.PushRecord, error) {
	if err := a.Bootstrap(ctx); err != nil {
		return nil, nil, err
	}

	rep, err := a.generator.Generate(ctx, mode, time.Now())
	if err != nil {
		return nil, nil, err
	}
	if !doPush {
		return rep, nil, nil
	}
	if a.dispatcher == nil {
		return rep, nil, errors.New("push is not enabled in configuration")
	}

	record, err := a.dispatcher.Dispatch(ctx, rep)
	return rep, record, err
}

// SyncWords parses the word file into storage and the live engine
func (a *App) SyncWords(ctx context.Context) error {
	return a.wordsSvc.SyncFromFile(ctx, a.cfg.Words.File)
}

// RecomputeStats rebuilds one day's aggregates. The day boundary follows
// the configured report timezone.
func (a *App) RecomputeStats(ctx context.Context, day time.Time) error {
	loc := a.cfg.Location()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	return a.store.RecomputeDailyStats(ctx, start, start, start.AddDate(0, 0, 1))
}

// Close cleans up resources
func (a *App) Close() error {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("failed to close store", logger.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("failed to close redis client", logger.Error(err))
		}
	}
	return a.log.Sync()
}

// Logger returns the application logger
func (a *App) Logger() logger.Logger {
	return a.log
}
