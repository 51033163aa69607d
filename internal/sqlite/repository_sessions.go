package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/trendwatch/internal/models"
)

const sessionSelectList = `id, status, started_at, completed_at, sources_ok, sources_failed, headline_count`

const defaultSessionLimit = 20

// Session source lists live in TEXT columns as JSON arrays.
func marshalSources(names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	data, err := json.Marshal(names)
	if err != nil {
		return "", fmt.Errorf("failed to encode source list: %w", err)
	}
	return string(data), nil
}

// BeginSession opens a new crawl session in the running state
func (r *Repository) BeginSession(ctx context.Context, startedAt time.Time) (*models.CrawlSession, error) {
	session := &models.CrawlSession{
		ID:            uuid.New(),
		Status:        models.SessionStatusRunning,
		StartedAt:     startedAt.UTC(),
		SourcesOK:     []string{},
		SourcesFailed: []string{},
	}

	query := `
		INSERT INTO crawl_sessions (id, status, started_at, sources_ok, sources_failed, headline_count)
		VALUES (?, ?, ?, '[]', '[]', 0)
	`

	if _, err := r.db.ExecContext(ctx, query, session.ID, session.Status, session.StartedAt); err != nil {
		return nil, fmt.Errorf("failed to begin crawl session: %w", err)
	}

	return session, nil
}

// FinalizeSession moves a running session to its terminal status. The status
// guard makes the transition one-way: a second finalize attempt reports
// models.ErrSessionFinalized.
func (r *Repository) FinalizeSession(ctx context.Context, id uuid.UUID, result *models.SessionResult) error {
	sourcesOK, err := marshalSources(result.SourcesOK)
	if err != nil {
		return err
	}
	sourcesFailed, err := marshalSources(result.SourcesFailed)
	if err != nil {
		return err
	}

	completedAt := result.CompletedAt.UTC()
	if result.CompletedAt.IsZero() {
		completedAt = time.Now().UTC()
	}

	query := `
		UPDATE crawl_sessions
		SET status = ?,
		    completed_at = ?,
		    sources_ok = ?,
		    sources_failed = ?,
		    headline_count = ?
		WHERE id = ? AND status = ?
	`

	res, err := r.db.ExecContext(ctx, query,
		result.Status, completedAt, sourcesOK, sourcesFailed, result.HeadlineCount,
		id, models.SessionStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize crawl session: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Distinguish an unknown session from one already finalized.
		var status string
		err := r.db.GetContext(ctx, &status, `SELECT status FROM crawl_sessions WHERE id = ?`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check crawl session: %w", err)
		}
		return models.ErrSessionFinalized
	}

	return nil
}

// LatestSession returns the most recently started session
func (r *Repository) LatestSession(ctx context.Context) (*models.CrawlSession, error) {
	query := `
		SELECT ` + sessionSelectList + `
		FROM crawl_sessions
		ORDER BY started_at DESC
		LIMIT 1
	`

	session, err := scanSession(r.db.QueryRowxContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest session: %w", err)
	}
	return session, nil
}

// ListSessions returns sessions by descending started_at
func (r *Repository) ListSessions(ctx context.Context, limit int) ([]models.CrawlSession, error) {
	if limit <= 0 {
		limit = defaultSessionLimit
	}

	query := `
		SELECT ` + sessionSelectList + `
		FROM crawl_sessions
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := r.db.QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.CrawlSession{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}
	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.CrawlSession, error) {
	var (
		session       models.CrawlSession
		sourcesOK     string
		sourcesFailed string
	)

	err := row.Scan(
		&session.ID, &session.Status, &session.StartedAt, &session.CompletedAt,
		&sourcesOK, &sourcesFailed, &session.HeadlineCount,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(sourcesOK), &session.SourcesOK); err != nil {
		return nil, fmt.Errorf("failed to decode sources_ok: %w", err)
	}
	if err := json.Unmarshal([]byte(sourcesFailed), &session.SourcesFailed); err != nil {
		return nil, fmt.Errorf("failed to decode sources_failed: %w", err)
	}
	return &session, nil
}
