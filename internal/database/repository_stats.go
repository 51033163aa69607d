package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jonesrussell/trendwatch/internal/models"
)

// RecomputeDailyStats rebuilds the per-source aggregate for one day from the
// occurrences observed in [from, to). The upsert makes re-runs idempotent.
func (r *Repository) RecomputeDailyStats(ctx context.Context, statDate, from, to time.Time) error {
	query := `
		INSERT INTO daily_stats (stat_date, source_id, headline_count, unique_count, avg_rank)
		SELECT $1::date, h.source_id, COUNT(o.id), COUNT(DISTINCT h.id), COALESCE(AVG(o.rank), 0)
		FROM occurrences o
		JOIN headlines h ON h.id = o.headline_id
		WHERE o.observed_at >= $2 AND o.observed_at < $3
		GROUP BY h.source_id
		ON CONFLICT (stat_date, source_id) DO UPDATE SET
			headline_count = EXCLUDED.headline_count,
			unique_count = EXCLUDED.unique_count,
			avg_rank = EXCLUDED.avg_rank
	`

	if _, err := r.db.ExecContext(ctx, query, statDate, from, to); err != nil {
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
		WHERE ds.stat_date >= $1::date AND ds.stat_date <= $2::date
		ORDER BY ds.stat_date DESC, s.platform_id ASC
	`

	if err := r.db.SelectContext(ctx, &stats, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to list daily stats: %w", err)
	}
	return stats, nil
}
