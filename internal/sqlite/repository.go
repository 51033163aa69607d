package sqlite

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

const sourceSelectList = `id, platform_id, name, adapter, endpoint, is_active, created_at, updated_at`

// Repository provides database operations for all entities on SQLite
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
// entry is upserted by platform id, everything else is deactivated.
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
		`UPDATE sources SET is_active = 0, updated_at = ?`, now,
	); err != nil {
		return fmt.Errorf("failed to deactivate sources: %w", err)
	}

	upsert := `
		INSERT INTO sources (id, platform_id, name, adapter, endpoint, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (platform_id) DO UPDATE SET
			name = excluded.name,
			adapter = excluded.adapter,
			endpoint = excluded.endpoint,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at
	`
	for i := range sources {
		src := &sources[i]
		if _, err = tx.ExecContext(ctx, upsert,
			uuid.New(), src.PlatformID, src.Name, src.Adapter, src.Endpoint, src.IsActive, now, now,
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
		WHERE platform_id = ?
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
		query += " WHERE is_active = 1"
	}

	query += " ORDER BY platform_id ASC"

	err := r.db.SelectContext(ctx, &sources, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}

	return sources, nil
}

// ====================
// Daily stats
// ====================

// RecomputeDailyStats rebuilds the per-source aggregate for one day from the
// occurrences observed in [from, to). The upsert makes re-runs idempotent.
func (r *Repository) RecomputeDailyStats(ctx context.Context, statDate, from, to time.Time) error {
	query := `
		INSERT INTO daily_stats (stat_date, source_id, headline_count, unique_count, avg_rank)
		SELECT ?, h.source_id, COUNT(o.id), COUNT(DISTINCT h.id), COALESCE(AVG(o.rank), 0)
		FROM occurrences o
		JOIN headlines h ON h.id = o.headline_id
		WHERE o.observed_at >= ? AND o.observed_at < ?
		GROUP BY h.source_id
		ON CONFLICT (stat_date, source_id) DO UPDATE SET
			headline_count = excluded.headline_count,
			unique_count = excluded.unique_count,
			avg_rank = excluded.avg_rank
	`

	if _, err := r.db.ExecContext(ctx, query, statDate.UTC(), from.UTC(), to.UTC()); err != nil {
		return fmt.Errorf("failed to recompute daily stats: %w", err)
	}
	return nil
}

// DailyStats lists aggregates for stat dates in [from, to]
func (r *Repository) DailyStats(ctx context.Context, from, to time.Time) ([]models.DailyStat, error) {
	stats := []models.DailyStat{}
	query := `
		SELECT ds.stat_date, ds.source_id, ds.headline_count, ds.unique_count, ds.avg_rank,
		       s.platform_id AS source_platform_id, s.name AS source_name
		FROM daily_stats ds
		JOIN sources s ON s.id = ds.source_id
		WHERE ds.stat_date >= ? AND ds.stat_date <= ?
		ORDER BY ds.stat_date DESC, s.platform_id ASC
	`

	if err := r.db.SelectContext(ctx, &stats, query, from.UTC(), to.UTC()); err != nil {
		return nil, fmt.Errorf("failed to list daily stats: %w", err)
	}
	return stats, nil
}
