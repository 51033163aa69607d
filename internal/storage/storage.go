// Package storage defines the persistence boundary shared by the Postgres
// and SQLite backends.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/trendwatch/internal/models"
)

// Store is the full persistence surface. The app wires exactly one
// implementation; consumers declare the narrow subset they need and accept it
// as their own interface.
type Store interface {
	// SyncSources reconciles storage with the configured source list:
	// every configured source is upserted by platform id and any source
	// absent from the list is deactivated. Deactivated sources keep their
	// headline history.
	SyncSources(ctx context.Context, sources []models.SourceUpsert) error

	// ListSources returns sources ordered by platform id.
	ListSources(ctx context.Context, activeOnly bool) ([]models.Source, error)

	// GetSourceByPlatformID returns models.ErrNotFound for unknown ids.
	GetSourceByPlatformID(ctx context.Context, platformID string) (*models.Source, error)

	// RecordObservation upserts the headline identified by (source_id,
	// title) and appends one occurrence, atomically. The title must
	// already be normalized. first_seen_at is never modified on conflict;
	// last_seen_at only moves forward. Returns the headline id and
	// whether the row was newly created.
	RecordObservation(ctx context.Context, obs *models.Observation) (uuid.UUID, bool, error)

	// GetHeadline returns one headline with its source attached.
	GetHeadline(ctx context.Context, id uuid.UUID) (*models.Headline, error)

	// HeadlinesSince lists headlines by descending last_seen_at, filtered
	// by platform, last-seen lower bound, and title keyword.
	HeadlinesSince(ctx context.Context, filter *models.HeadlineFilter) ([]models.Headline, error)

	// NewHeadlinesSince lists headlines by first_seen_at: strictly after
	// since, or at-or-after when inclusive is true. Ordered by descending
	// last_seen_at.
	NewHeadlinesSince(ctx context.Context, since time.Time, inclusive bool) ([]models.Headline, error)

	// HeadlinesLastSeenBetween lists headlines whose last_seen_at falls in
	// [from, to], ordered by descending last_seen_at.
	HeadlinesLastSeenBetween(ctx context.Context, from, to time.Time) ([]models.Headline, error)

	// OccurrencesFor returns a headline's occurrences, most recent first.
	OccurrencesFor(ctx context.Context, headlineID uuid.UUID, limit int) ([]models.Occurrence, error)

	// OccurrenceSummaries aggregates occurrence counts and the most recent
	// ranks (capped at rankDepth) for the given headlines.
	OccurrenceSummaries(ctx context.Context, headlineIDs []uuid.UUID, rankDepth int) (map[uuid.UUID]models.OccurrenceSummary, error)

	// BeginSession opens a crawl session in the running state.
	BeginSession(ctx context.Context, startedAt time.Time) (*models.CrawlSession, error)

	// FinalizeSession moves a running session to its terminal status.
	// Returns models.ErrSessionFinalized if the session already left
	// running, models.ErrNotFound if it does not exist.
	FinalizeSession(ctx context.Context, id uuid.UUID, result *models.SessionResult) error

	// LatestSession returns the most recently started session.
	LatestSession(ctx context.Context) (*models.CrawlSession, error)

	// ListSessions returns sessions by descending started_at.
	ListSessions(ctx context.Context, limit int) ([]models.CrawlSession, error)

	// SyncWordGroups replaces the active word groups with the parsed file
	// content: deactivate all, upsert each group by group_key, rewrite its
	// words. Runs in one transaction.
	SyncWordGroups(ctx context.Context, groups []models.WordGroupConfig) error

	// ActiveWordGroups returns active groups in position order, words
	// attached in insertion order.
	ActiveWordGroups(ctx context.Context) ([]models.WordGroup, error)

	// RecordPush stores the outcome of one push attempt and returns the
	// stored record.
	RecordPush(ctx context.Context, record *models.PushRecord) (*models.PushRecord, error)

	// LastSuccessfulPushAt returns the pushed_at of the most recent sent
	// push, or models.ErrNotFound when none exists.
	LastSuccessfulPushAt(ctx context.Context) (time.Time, error)

	// ListPushes returns push records by descending pushed_at.
	ListPushes(ctx context.Context, limit int) ([]models.PushRecord, error)

	// RecomputeDailyStats rebuilds the per-source aggregate for one day
	// from the occurrences observed in [from, to). Idempotent.
	RecomputeDailyStats(ctx context.Context, statDate, from, to time.Time) error

	// DailyStats lists aggregates for stat dates in [from, to].
	DailyStats(ctx context.Context, from, to time.Time) ([]models.DailyStat, error)

	// Ping verifies connectivity.
	Ping(ctx context.Context) error

	// Close releases the underlying pool.
	Close() error
}
