package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jonesrussell/trendwatch/internal/models"
)

// headlineSelectList is the column list for headline queries joined to sources
const headlineSelectList = `h.id, h.source_id, h.title, h.url, h.mobile_url,
			h.first_seen_at, h.last_seen_at,
			s.platform_id AS source_platform_id, s.name AS source_name`

const (
	defaultHeadlineLimit = 100
	maxHeadlineLimit     = 500
)

// RecordObservation upserts the headline keyed by (source_id, title) and
// appends one occurrence row, in a single transaction. On conflict the row
// keeps its first_seen_at and last_seen_at never moves backwards; whether the
// upsert inserted is read back via xmax.
func (r *Repository) RecordObservation(ctx context.Context, obs *models.Observation) (uuid.UUID, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to begin observation: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	upsert := `
		INSERT INTO headlines (id, source_id, title, url, mobile_url, first_seen_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (source_id, title) DO UPDATE SET
			url = EXCLUDED.url,
			mobile_url = EXCLUDED.mobile_url,
			last_seen_at = GREATEST(headlines.last_seen_at, EXCLUDED.last_seen_at)
		RETURNING id, (xmax = 0) AS is_insert
	`

	var (
		headlineID uuid.UUID
		isNew      bool
	)
	err = tx.QueryRowxContext(ctx, upsert,
		uuid.New(), obs.SourceID, obs.Title, obs.URL, obs.MobileURL, obs.ObservedAt,
	).Scan(&headlineID, &isNew)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to upsert headline: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO occurrences (headline_id, rank, observed_at) VALUES ($1, $2, $3)`,
		headlineID, obs.Rank, obs.ObservedAt,
	); err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to append occurrence: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to commit observation: %w", err)
	}
	return headlineID, isNew, nil
}

// GetHeadline retrieves a headline by ID with its source attached
func (r *Repository) GetHeadline(ctx context.Context, id uuid.UUID) (*models.Headline, error) {
	headline := &models.Headline{}
	query := `
		SELECT ` + headlineSelectList + `
		FROM headlines h
		JOIN sources s ON s.id = h.source_id
		WHERE h.id = $1
	`

	err := r.db.GetContext(ctx, headline, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get headline: %w", err)
	}

	return headline, nil
}

// HeadlinesSince lists headlines by descending last_seen_at, narrowed by the
// optional filter fields.
func (r *Repository) HeadlinesSince(ctx context.Context, filter *models.HeadlineFilter) ([]models.Headline, error) {
	query := `
		SELECT ` + headlineSelectList + `
		FROM headlines h
		JOIN sources s ON s.id = h.source_id
	`
	args := []any{}
	argPos := 1

	where := ""
	addClause := func(clause string, value any) {
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		where += fmt.Sprintf(clause, argPos)
		args = append(args, value)
		argPos++
	}

	if filter.PlatformID != nil {
		addClause("s.platform_id = $%d", *filter.PlatformID)
	}
	if filter.Since != nil {
		addClause("h.last_seen_at >= $%d", *filter.Since)
	}
	if filter.Keyword != nil {
		addClause("h.title ILIKE $%d", "%"+*filter.Keyword+"%")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultHeadlineLimit
	}
	if limit > maxHeadlineLimit {
		limit = maxHeadlineLimit
	}

	query += where + fmt.Sprintf(" ORDER BY h.last_seen_at DESC, h.id ASC LIMIT $%d", argPos)
	args = append(args, limit)

	headlines := []models.Headline{}
	if err := r.db.SelectContext(ctx, &headlines, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list headlines: %w", err)
	}
	return headlines, nil
}

// NewHeadlinesSince lists headlines by first_seen_at, strictly after since or
// at-or-after it when inclusive is set.
func (r *Repository) NewHeadlinesSince(ctx context.Context, since time.Time, inclusive bool) ([]models.Headline, error) {
	op := ">"
	if inclusive {
		op = ">="
	}
	query := `
		SELECT ` + headlineSelectList + `
		FROM headlines h
		JOIN sources s ON s.id = h.source_id
		WHERE h.first_seen_at ` + op + ` $1
		ORDER BY h.last_seen_at DESC, h.id ASC
	`

	headlines := []models.Headline{}
	if err := r.db.SelectContext(ctx, &headlines, query, since); err != nil {
		return nil, fmt.Errorf("failed to list new headlines: %w", err)
	}
	return headlines, nil
}

// HeadlinesLastSeenBetween lists headlines whose last_seen_at falls inside
// [from, to].
func (r *Repository) HeadlinesLastSeenBetween(ctx context.Context, from, to time.Time) ([]models.Headline, error) {
	query := `
		SELECT ` + headlineSelectList + `
		FROM headlines h
		JOIN sources s ON s.id = h.source_id
		WHERE h.last_seen_at >= $1 AND h.last_seen_at <= $2
		ORDER BY h.last_seen_at DESC, h.id ASC
	`

	headlines := []models.Headline{}
	if err := r.db.SelectContext(ctx, &headlines, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to list session headlines: %w", err)
	}
	return headlines, nil
}

// OccurrencesFor returns a headline's occurrences, most recent first
func (r *Repository) OccurrencesFor(ctx context.Context, headlineID uuid.UUID, limit int) ([]models.Occurrence, error) {
	if limit <= 0 {
		limit = defaultHeadlineLimit
	}

	occurrences := []models.Occurrence{}
	query := `
		SELECT id, headline_id, rank, observed_at
		FROM occurrences
		WHERE headline_id = $1
		ORDER BY observed_at DESC, id DESC
		LIMIT $2
	`

	if err := r.db.SelectContext(ctx, &occurrences, query, headlineID, limit); err != nil {
		return nil, fmt.Errorf("failed to list occurrences: %w", err)
	}
	return occurrences, nil
}

// OccurrenceSummaries aggregates occurrence counts and recent ranks for the
// given headlines in two queries.
func (r *Repository) OccurrenceSummaries(ctx context.Context, headlineIDs []uuid.UUID, rankDepth int) (map[uuid.UUID]models.OccurrenceSummary, error) {
	summaries := make(map[uuid.UUID]models.OccurrenceSummary, len(headlineIDs))
	if len(headlineIDs) == 0 {
		return summaries, nil
	}
	if rankDepth <= 0 {
		rankDepth = 10
	}

	ids := make([]string, len(headlineIDs))
	for i, id := range headlineIDs {
		ids[i] = id.String()
	}

	countQuery := `
		SELECT headline_id, COUNT(*) AS count
		FROM occurrences
		WHERE headline_id = ANY($1::uuid[])
		GROUP BY headline_id
	`
	rows, err := r.db.QueryxContext(ctx, countQuery, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to count occurrences: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    uuid.UUID
			count int
		)
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("failed to scan occurrence count: %w", err)
		}
		summaries[id] = models.OccurrenceSummary{Count: count}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read occurrence counts: %w", err)
	}

	rankQuery := `
		SELECT headline_id, rank
		FROM (
			SELECT headline_id, rank,
				ROW_NUMBER() OVER (PARTITION BY headline_id ORDER BY observed_at DESC, id DESC) AS rn
			FROM occurrences
			WHERE headline_id = ANY($1::uuid[])
		) recent
		WHERE rn <= $2
		ORDER BY headline_id, rn
	`
	rankRows, err := r.db.QueryxContext(ctx, rankQuery, pq.Array(ids), rankDepth)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent ranks: %w", err)
	}
	defer rankRows.Close()

	for rankRows.Next() {
		var (
			id   uuid.UUID
			rank int
		)
		if err := rankRows.Scan(&id, &rank); err != nil {
			return nil, fmt.Errorf("failed to scan rank: %w", err)
		}
		summary := summaries[id]
		summary.Ranks = append(summary.Ranks, rank)
		summaries[id] = summary
	}
	if err := rankRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read recent ranks: %w", err)
	}

	return summaries, nil
}
