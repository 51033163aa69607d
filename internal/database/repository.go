// Package database provides the PostgreSQL storage backend.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/trendwatch/internal/models"
	"github.com/jonesrussell/trendwatch/internal/storage"
)

const whereActiveTrue = " WHERE is_active = true"

// sourceSelectList is the column list for SELECT/RETURNING on sources (single source for schema changes)
const sourceSelectList = `id, platform_id, name, adapter, endpoint, is_active, created_at, updated_at`

// Repository provides database operations for all entities
type Repository struct {
	db *sqlx.DB
}

// Compile-time check that Repository satisfies the storage boundary.
var _ storage.Store = (*Repository)(nil)

// NewRepository creates a new repository instance
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Ping verifies database connectivity
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the underlying connection pool
func (r *Repository) Close() error {
	return r.db.Close()
}

// ====================
// Sources
// ====================

// SyncSources reconciles the sources table with the configured list: every
// entry is upserted by platform id, everything else is deactivated. Runs in
// one transaction so a crawl round never sees a half-synced table.
func (r *Repository) SyncSources(ctx context.Context, sources []models.SourceUpsert) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin sources sync: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()

	if _, err = tx.ExecContext(ctx,
		`UPDATE sources SET is_active = false, updated_at = $1`, now,
	); err != nil {
		return fmt.Errorf("failed to deactivate sources: %w", err)
	}

	upsert := `
		INSERT INTO sources (id, platform_id, name, adapter, endpoint, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (platform_id) DO UPDATE SET
			name = EXCLUDED.name,
			adapter = EXCLUDED.adapter,
			endpoint = EXCLUDED.endpoint,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`
	for i := range sources {
		src := &sources[i]
		if _, err = tx.ExecContext(ctx, upsert,
			uuid.New(), src.PlatformID, src.Name, src.Adapter, src.Endpoint, src.IsActive, now,
		); err != nil {
			return fmt.Errorf("failed to upsert source %q: %w", src.PlatformID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sources sync: %w", err)
	}
	return nil
}

// GetSourceByPlatformID retrieves a source by its stable platform identifier
func (r *Repository) GetSourceByPlatformID(ctx context.Context, platformID string) (*models.Source, error) {
	source := &models.Source{}
	query := `
		SELECT ` + sourceSelectList + `
		FROM sources
		WHERE platform_id = $1
	`

	err := r.db.GetContext(ctx, source, query, platformID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get source: %w", err)
	}

	return source, nil
}

// ListSources retrieves all sources
func (r *Repository) ListSources(ctx context.Context, activeOnly bool) ([]models.Source, error) {
	sources := []models.Source{}
	query := `
		SELECT ` + sourceSelectList + `
		FROM sources
	`

	if activeOnly {
		query += whereActiveTrue
	}

	query += " ORDER BY platform_id ASC"

	err := r.db.SelectContext(ctx, &sources, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}

	return sources, nil
}
