package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/trendwatch/internal/models"
)

// SyncWordGroups replaces the active word groups with the parsed word list:
// deactivate everything, upsert each group by group_key (reactivating it and
// refreshing position and max display count), then rewrite its words. One
// transaction, so the filter engine never reads a half-synced list.
func (r *Repository) SyncWordGroups(ctx context.Context, groups []models.WordGroupConfig) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin word sync: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()

	if _, err = tx.ExecContext(ctx,
		`UPDATE word_groups SET is_active = false, updated_at = $1`, now,
	); err != nil {
		return fmt.Errorf("failed to deactivate word groups: %w", err)
	}

	upsert := `
		INSERT INTO word_groups (id, group_key, max_display_count, position, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, true, $5, $5)
		ON CONFLICT (group_key) DO UPDATE SET
			max_display_count = EXCLUDED.max_display_count,
			position = EXCLUDED.position,
			is_active = true,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`

	for i := range groups {
		group := &groups[i]

		var groupID uuid.UUID
		if err = tx.QueryRowxContext(ctx, upsert,
			uuid.New(), group.GroupKey, group.MaxDisplayCount, group.Position, now,
		).Scan(&groupID); err != nil {
			return fmt.Errorf("failed to upsert word group %q: %w", group.GroupKey, err)
		}

		if _, err = tx.ExecContext(ctx,
			`DELETE FROM group_words WHERE group_id = $1`, groupID,
		); err != nil {
			return fmt.Errorf("failed to clear words for group %q: %w", group.GroupKey, err)
		}

		if err = insertGroupWords(ctx, tx, groupID, group); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit word sync: %w", err)
	}
	return nil
}

// insertGroupWords writes a group's words kind by kind; insertion order is the
// word order the filter engine sees.
func insertGroupWords(ctx context.Context, tx *sqlx.Tx, groupID uuid.UUID, group *models.WordGroupConfig) error {
	insert := `INSERT INTO group_words (group_id, word, kind) VALUES ($1, $2, $3)`

	kinds := []struct {
		kind  models.WordKind
		words []string
	}{
		{models.WordKindRequired, group.Required},
		{models.WordKindNormal, group.Normal},
		{models.WordKindFilter, group.Filter},
	}

	for _, k := range kinds {
		for _, word := range k.words {
			if _, err := tx.ExecContext(ctx, insert, groupID, word, k.kind); err != nil {
				return fmt.Errorf("failed to insert %s word %q: %w", k.kind, word, err)
			}
		}
	}
	return nil
}

// ActiveWordGroups returns active groups in position order with their words
// attached in insertion order.
func (r *Repository) ActiveWordGroups(ctx context.Context) ([]models.WordGroup, error) {
	groups := []models.WordGroup{}
	groupQuery := `
		SELECT id, group_key, max_display_count, position, is_active, created_at, updated_at
		FROM word_groups
		WHERE is_active = true
		ORDER BY position ASC
	`
	if err := r.db.SelectContext(ctx, &groups, groupQuery); err != nil {
		return nil, fmt.Errorf("failed to list word groups: %w", err)
	}
	if len(groups) == 0 {
		return groups, nil
	}

	words := []models.GroupWord{}
	wordQuery := `
		SELECT gw.id, gw.group_id, gw.word, gw.kind
		FROM group_words gw
		JOIN word_groups g ON g.id = gw.group_id
		WHERE g.is_active = true
		ORDER BY gw.group_id, gw.id ASC
	`
	if err := r.db.SelectContext(ctx, &words, wordQuery); err != nil {
		return nil, fmt.Errorf("failed to list group words: %w", err)
	}

	byGroup := make(map[uuid.UUID][]models.GroupWord, len(groups))
	for _, w := range words {
		byGroup[w.GroupID] = append(byGroup[w.GroupID], w)
	}
	for i := range groups {
		groups[i].Words = byGroup[groups[i].ID]
	}

	return groups, nil
}
