package models

import (
	"time"

	"github.com/google/uuid"
)

// WordKind labels the role a word plays inside its group
type WordKind string

// Word kinds
const (
	WordKindNormal   WordKind = "normal"   // at least one must appear
	WordKindRequired WordKind = "required" // all must appear
	WordKindFilter   WordKind = "filter"   // any appearance disqualifies the title
)

// WordGroup is one interest group from the word list. Groups are evaluated
// independently; a headline may match several.
type WordGroup struct {
	ID              uuid.UUID `db:"id"                json:"id"`
	GroupKey        string    `db:"group_key"         json:"group_key"`
	MaxDisplayCount int       `db:"max_display_count" json:"max_display_count"` // 0 means unlimited
	Position        int       `db:"position"          json:"position"`
	IsActive        bool      `db:"is_active"         json:"is_active"`
	CreatedAt       time.Time `db:"created_at"        json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"        json:"updated_at"`

	// Populated by joined listings only. Word order follows insertion order.
	Words []GroupWord `db:"-" json:"words,omitempty"`
}

// GroupWord is a single word inside a group
type GroupWord struct {
	ID      int64     `db:"id"       json:"id"`
	GroupID uuid.UUID `db:"group_id" json:"group_id"`
	Word    string    `db:"word"     json:"word"`
	Kind    WordKind  `db:"kind"     json:"kind"`
}

// WordsOfKind returns the group's words of one kind, preserving order
func (g *WordGroup) WordsOfKind(kind WordKind) []string {
	var out []string
	for _, w := range g.Words {
		if w.Kind == kind {
			out = append(out, w.Word)
		}
	}
	return out
}

// WordGroupConfig is the parsed shape of one group from the word list file,
// before it is synced into storage.
type WordGroupConfig struct {
	GroupKey        string   `json:"group_key"`
	Normal          []string `json:"normal"`
	Required        []string `json:"required"`
	Filter          []string `json:"filter"`
	MaxDisplayCount int      `json:"max_display_count"`
	Position        int      `json:"position"`
}

// WordCount returns the total number of words across all kinds
func (c *WordGroupConfig) WordCount() int {
	return len(c.Normal) + len(c.Required) + len(c.Filter)
}
