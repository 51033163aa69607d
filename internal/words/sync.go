package words

import (
	"context"
	"fmt"
	"os"

	"github.com/jonesrussell/trendwatch/internal/logger"
	"github.com/jonesrussell/trendwatch/internal/models"
)

// Store is the slice of storage the word sync needs
type Store interface {
	SyncWordGroups(ctx context.Context, groups []models.WordGroupConfig) error
	ActiveWordGroups(ctx context.Context) ([]models.WordGroup, error)
}

// Engine is the filter side of a sync: after storage is updated the compiled
// matcher is swapped atomically.
type Engine interface {
	UpdateGroups(groups []models.WordGroup)
}

// Service loads the word file into storage and keeps the filter engine in
// step with it.
type Service struct {
	store  Store
	engine Engine
	log    logger.Logger
}

// NewService creates a word sync service. engine may be nil when only the
// storage side is wanted (the words sync CLI).
func NewService(store Store, engine Engine, log logger.Logger) *Service {
	return &Service{store: store, engine: engine, log: log}
}

// LoadFile parses the word-group file at path
func LoadFile(path string) ([]models.WordGroupConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open word file: %w", err)
	}
	defer f.Close()

	groups, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse word file %s: %w", path, err)
	}
	return groups, nil
}

// SyncFromFile parses path, replaces the stored word groups and hot-swaps
// the filter engine with the fresh active set.
func (s *Service) SyncFromFile(ctx context.Context, path string) error {
	groups, err := LoadFile(path)
	if err != nil {
		return err
	}

	if err := s.store.SyncWordGroups(ctx, groups); err != nil {
		return fmt.Errorf("failed to sync word groups: %w", err)
	}

	s.log.Info("word groups synced",
		logger.String("file", path),
		logger.Int("groups", len(groups)))

	if s.engine == nil {
		return nil
	}

	active, err := s.store.ActiveWordGroups(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active word groups: %w", err)
	}
	s.engine.UpdateGroups(active)

	return nil
}
