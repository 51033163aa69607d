package search

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/trendwatch/internal/logger"
	"github.com/jonesrussell/trendwatch/internal/models"
)

// Store is the slice of storage the mirror reads a session's headlines from
type Store interface {
	HeadlinesLastSeenBetween(ctx context.Context, from, to time.Time) ([]models.Headline, error)
	OccurrenceSummaries(ctx context.Context, headlineIDs []uuid.UUID, rankDepth int) (map[uuid.UUID]models.OccurrenceSummary, error)
}

// Mirror copies each finished session's headlines into the search index.
// A nil *Mirror is a no-op, so callers need no enabled-check of their own.
type Mirror struct {
	indexer *Indexer
	store   Store
	log     logger.Logger
}

// NewMirror returns nil when the indexer is disabled
func NewMirror(indexer *Indexer, store Store, log logger.Logger) *Mirror {
	if !indexer.Enabled() {
		return nil
	}
	return &Mirror{indexer: indexer, store: store, log: log}
}

// MirrorSession indexes every headline observed during the session's window
func (m *Mirror) MirrorSession(ctx context.Context, session *models.CrawlSession) error {
	if m == nil || session == nil {
		return nil
	}

	from, to := session.Window(time.Now())
	headlines, err := m.store.HeadlinesLastSeenBetween(ctx, from, to)
	if err != nil {
		return fmt.Errorf("failed to load session headlines: %w", err)
	}
	if len(headlines) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(headlines))
	for i, h := range headlines {
		ids[i] = h.ID
	}
	summaries, err := m.store.OccurrenceSummaries(ctx, ids, 1)
	if err != nil {
		return fmt.Errorf("failed to load occurrence summaries: %w", err)
	}

	if err := m.indexer.IndexHeadlines(ctx, headlines, LatestRanks(summaries)); err != nil {
		return err
	}

	m.log.Debug("session mirrored into search index",
		logger.String("session_id", session.ID.String()),
		logger.Int("headlines", len(headlines)))
	return nil
}
