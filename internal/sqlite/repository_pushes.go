package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/trendwatch/internal/models"
)

const pushSelectList = `id, channel, mode, signature, headline_count, status, error_detail, pushed_at`

const defaultPushLimit = 20

// RecordPush stores the outcome of one push attempt
func (r *Repository) RecordPush(ctx context.Context, record *models.PushRecord) (*models.PushRecord, error) {
	stored := &models.PushRecord{
		ID:            uuid.New(),
		Channel:       record.Channel,
		Mode:          record.Mode,
		Signature:     record.Signature,
		HeadlineCount: record.HeadlineCount,
		Status:        record.Status,
		Error:         record.Error,
		PushedAt:      record.PushedAt,
	}
	if stored.PushedAt.IsZero() {
		stored.PushedAt = time.Now().UTC()
	}
	stored.PushedAt = stored.PushedAt.UTC()

	query := `
		INSERT INTO push_records (id, channel, mode, signature, headline_count, status, error_detail, pushed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	if _, err := r.db.ExecContext(ctx, query,
		stored.ID, stored.Channel, stored.Mode, stored.Signature,
		stored.HeadlineCount, stored.Status, stored.Error, stored.PushedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to record push: %w", err)
	}

	return stored, nil
}

// LastSuccessfulPushAt returns the pushed_at of the most recent sent push
func (r *Repository) LastSuccessfulPushAt(ctx context.Context) (time.Time, error) {
	var pushedAt time.Time
	query := `
		SELECT pushed_at
		FROM push_records
		WHERE status = ?
		ORDER BY pushed_at DESC
		LIMIT 1
	`

	err := r.db.GetContext(ctx, &pushedAt, query, models.PushStatusSent)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, models.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("failed to get last push time: %w", err)
	}

	return pushedAt, nil
}

// ListPushes returns push records by descending pushed_at
func (r *Repository) ListPushes(ctx context.Context, limit int) ([]models.PushRecord, error) {
	if limit <= 0 {
		limit = defaultPushLimit
	}

	records := []models.PushRecord{}
	query := `
		SELECT ` + pushSelectList + `
		FROM push_records
		ORDER BY pushed_at DESC
		LIMIT ?
	`

	if err := r.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list pushes: %w", err)
	}
	return records, nil
}
