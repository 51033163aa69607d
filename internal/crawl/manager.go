// Package crawl executes crawl rounds end to end: one session per round,
// bounded fan-out over the active sources, observation writes through the
// recorder, then finalization with the per-source outcome.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonesrussell/trendwatch/internal/fetch"
	"github.com/jonesrussell/trendwatch/internal/logger"
	"github.com/jonesrussell/trendwatch/internal/metrics"
	"github.com/jonesrussell/trendwatch/internal/models"
)

// Store is the slice of storage a crawl round needs
type Store interface {
	ListSources(ctx context.Context, activeOnly bool) ([]models.Source, error)
	BeginSession(ctx context.Context, startedAt time.Time) (*models.CrawlSession, error)
	FinalizeSession(ctx context.Context, id uuid.UUID, result *models.SessionResult) error
}

// Fetcher retrieves one source's current trending list
type Fetcher interface {
	Fetch(ctx context.Context, src *models.Source) ([]fetch.Item, error)
}

// Recorder persists one observation through the dedup write path
type Recorder interface {
	Record(ctx context.Context, obs *models.Observation) (uuid.UUID, bool, error)
}

// Manager runs crawl rounds. One source failing never aborts a round; a
// round is failed only when no source succeeds.
type Manager struct {
	store      Store
	fetcher    Fetcher
	recorder   Recorder
	collectors *metrics.Collectors
	activity   *metrics.Tracker // nil when Redis is absent
	workers    int
	log        logger.Logger
	tracer     trace.Tracer
}

// NewManager creates a crawl manager. A nil collectors gets a private
// registry so one-shot CLI rounds work without the metrics endpoint.
func NewManager(
	store Store,
	fetcher Fetcher,
	recorder Recorder,
	collectors *metrics.Collectors,
	activity *metrics.Tracker,
	workers int,
	log logger.Logger,
) *Manager {
	if collectors == nil {
		collectors = metrics.NewCollectors(prometheus.NewRegistry())
	}
	if workers < 1 {
		workers = 1
	}

	return &Manager{
		store:      store,
		fetcher:    fetcher,
		recorder:   recorder,
		collectors: collectors,
		activity:   activity,
		workers:    workers,
		log:        log,
		tracer:     otel.Tracer("crawl-manager"),
	}
}

// sourceOutcome is one source's result within a round
type sourceOutcome struct {
	platformID string
	accepted   int
	err        error
}

// Run executes one crawl round and returns the finalized session. It
// returns models.ErrNoActiveSource when there is nothing to crawl; a round
// where every source failed still finalizes, with status failed.
func (m *Manager) Run(ctx context.Context) (*models.CrawlSession, error) {
	sources, err := m.store.ListSources(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sources: %w", err)
	}
	if len(sources) == 0 {
		return nil, models.ErrNoActiveSource
	}

	startedAt := time.Now()
	session, err := m.store.BeginSession(ctx, startedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to begin crawl session: %w", err)
	}

	ctx, span := m.tracer.Start(ctx, "crawl.session",
		trace.WithAttributes(
			attribute.String("session_id", session.ID.String()),
			attribute.Int("source_count", len(sources)),
		))
	defer span.End()

	m.log.Info("crawl session started",
		logger.String("session_id", session.ID.String()),
		logger.Int("sources", len(sources)))

	outcomes := m.crawlSources(ctx, sources)

	result := &models.SessionResult{
		SourcesOK:     []string{},
		SourcesFailed: []string{},
		CompletedAt:   time.Now(),
	}
	for _, outcome := range outcomes {
		if outcome.err != nil {
			result.SourcesFailed = append(result.SourcesFailed, outcome.platformID)
			continue
		}
		result.SourcesOK = append(result.SourcesOK, outcome.platformID)
		result.HeadlineCount += outcome.accepted
	}
	result.Status = models.SessionStatusCompleted
	if len(result.SourcesOK) == 0 {
		result.Status = models.SessionStatusFailed
	}

	if finalizeErr := m.store.FinalizeSession(ctx, session.ID, result); finalizeErr != nil {
		return nil, fmt.Errorf("failed to finalize crawl session: %w", finalizeErr)
	}

	duration := result.CompletedAt.Sub(startedAt)
	m.collectors.Sessions.WithLabelValues(result.Status).Inc()
	m.collectors.CrawlDuration.Observe(duration.Seconds())
	span.SetAttributes(
		attribute.Int("sources_ok", len(result.SourcesOK)),
		attribute.Int("sources_failed", len(result.SourcesFailed)),
		attribute.Int("headline_count", result.HeadlineCount),
	)

	if activityErr := m.activity.RecordCrawl(ctx, metrics.RecentCrawl{
		SessionID:     session.ID.String(),
		Status:        result.Status,
		HeadlineCount: result.HeadlineCount,
		SourcesOK:     len(result.SourcesOK),
		SourcesFailed: len(result.SourcesFailed),
		FinishedAt:    result.CompletedAt,
	}); activityErr != nil {
		m.log.Warn("failed to record crawl activity", logger.Error(activityErr))
	}

	session.Status = result.Status
	session.CompletedAt = &result.CompletedAt
	session.SourcesOK = result.SourcesOK
	session.SourcesFailed = result.SourcesFailed
	session.HeadlineCount = result.HeadlineCount

	m.log.Info("crawl session finished",
		logger.String("session_id", session.ID.String()),
		logger.String("status", session.Status),
		logger.Int("headline_count", session.HeadlineCount),
		logger.Int("sources_ok", len(session.SourcesOK)),
		logger.Int("sources_failed", len(session.SourcesFailed)),
		logger.Duration("duration", duration))

	return session, nil
}

// crawlSources fans the sources out over the bounded worker pool
func (m *Manager) crawlSources(ctx context.Context, sources []models.Source) []sourceOutcome {
	outcomes := make([]sourceOutcome, len(sources))
	sem := make(chan struct{}, m.workers)
	var wg sync.WaitGroup

	for i := range sources {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				outcomes[i] = sourceOutcome{platformID: sources[i].PlatformID, err: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			outcomes[i] = m.crawlSource(ctx, &sources[i])
		}()
	}
	wg.Wait()

	return outcomes
}

// crawlSource fetches one source and feeds its items through the recorder.
// Malformed items are skipped without penalty; a source whose writes all
// fail counts as failed even though the fetch succeeded.
func (m *Manager) crawlSource(ctx context.Context, src *models.Source) sourceOutcome {
	outcome := sourceOutcome{platformID: src.PlatformID}

	items, err := m.fetcher.Fetch(ctx, src)
	if err != nil {
		m.collectors.SourceFailures.WithLabelValues(src.PlatformID).Inc()
		m.log.Warn("source fetch failed",
			logger.String("platform_id", src.PlatformID),
			logger.Error(err))
		outcome.err = err
		return outcome
	}

	observedAt := time.Now()
	var writeFailures int
	for _, item := range items {
		obs := &models.Observation{
			SourceID:   src.ID,
			Title:      item.Title,
			URL:        item.URL,
			MobileURL:  item.MobileURL,
			Rank:       item.Rank,
			ObservedAt: observedAt,
		}

		if _, _, recordErr := m.recorder.Record(ctx, obs); recordErr != nil {
			if errors.Is(recordErr, models.ErrMalformedObservation) {
				continue // already logged by the recorder
			}
			writeFailures++
			m.log.Error("failed to store observation",
				logger.String("platform_id", src.PlatformID),
				logger.String("title", obs.Title),
				logger.Error(recordErr))
			continue
		}

		outcome.accepted++
		m.collectors.Observations.WithLabelValues(src.PlatformID).Inc()
	}

	if outcome.accepted == 0 && writeFailures > 0 {
		m.collectors.SourceFailures.WithLabelValues(src.PlatformID).Inc()
		outcome.err = fmt.Errorf("failed to store any of %d observations for %s",
			writeFailures, src.PlatformID)
		return outcome
	}

	m.log.Debug("source crawled",
		logger.String("platform_id", src.PlatformID),
		logger.Int("items", len(items)),
		logger.Int("accepted", outcome.accepted))

	return outcome
}
