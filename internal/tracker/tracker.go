// Package tracker owns the headline write path: it normalizes and validates
// incoming observations before they reach storage, so every persisted title
// is in canonical form and malformed feed items never poison the dedup key.
package tracker

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonesrussell/trendwatch/internal/logger"
	"github.com/jonesrussell/trendwatch/internal/models"
)

// Store is the slice of storage the tracker needs
type Store interface {
	RecordObservation(ctx context.Context, obs *models.Observation) (uuid.UUID, bool, error)
}

// Tracker records observations against the dedup identity (source, title)
type Tracker struct {
	store Store
	log   logger.Logger
}

// NewTracker creates a tracker over the given store
func NewTracker(store Store, log logger.Logger) *Tracker {
	return &Tracker{store: store, log: log}
}

// Record normalizes the observation title, validates the observation and
// persists it. Returns the headline id and whether this observation created
// the headline. Malformed observations are rejected with
// models.ErrMalformedObservation and never reach storage.
func (t *Tracker) Record(ctx context.Context, obs *models.Observation) (uuid.UUID, bool, error) {
	obs.Title = models.NormalizeTitle(obs.Title)

	if err := obs.Validate(); err != nil {
		t.log.Warn("rejecting malformed observation",
			logger.String("source_id", obs.SourceID.String()),
			logger.String("title", obs.Title),
			logger.Int("rank", obs.Rank),
			logger.Error(err))
		return uuid.Nil, false, err
	}

	headlineID, isNew, err := t.store.RecordObservation(ctx, obs)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to record observation: %w", err)
	}

	if isNew {
		t.log.Debug("new headline",
			logger.String("headline_id", headlineID.String()),
			logger.String("title", obs.Title),
			logger.Int("rank", obs.Rank))
	}

	return headlineID, isNew, nil
}
