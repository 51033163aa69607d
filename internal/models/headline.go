package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NormalizeTitle reduces a raw title to its canonical form: surrounding
// whitespace removed and internal runs of whitespace collapsed to a single
// space. Case is preserved, so two titles differing only in case are distinct
// headlines.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(title), " ")
}

// Headline is one deduplicated trending entry. Identity is the pair
// (source_id, title) with the title in normalized form; re-observing the same
// pair updates last_seen_at but never creates a second row.
type Headline struct {
	ID          uuid.UUID `db:"id"            json:"id"`
	SourceID    uuid.UUID `db:"source_id"     json:"source_id"`
	Title       string    `db:"title"         json:"title"`
	URL         string    `db:"url"           json:"url"`
	MobileURL   string    `db:"mobile_url"    json:"mobile_url"`
	FirstSeenAt time.Time `db:"first_seen_at" json:"first_seen_at"`
	LastSeenAt  time.Time `db:"last_seen_at"  json:"last_seen_at"`

	// Populated by joined listings only.
	SourcePlatformID string `db:"source_platform_id" json:"source_platform_id,omitempty"`
	SourceName       string `db:"source_name"        json:"source_name,omitempty"`
}

// Observation is one sighting of a title on a platform's trending list, as
// delivered by a fetch adapter before any persistence.
type Observation struct {
	SourceID   uuid.UUID `json:"source_id"`
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	MobileURL  string    `json:"mobile_url"`
	Rank       int       `json:"rank"` // 1-based list position
	ObservedAt time.Time `json:"observed_at"`
}

// Validate reports whether the observation is fit for persistence
func (o *Observation) Validate() error {
	if NormalizeTitle(o.Title) == "" {
		return fmt.Errorf("%w: empty title", ErrMalformedObservation)
	}
	if o.Rank < 1 {
		return fmt.Errorf("%w: rank %d, want >= 1", ErrMalformedObservation, o.Rank)
	}
	if o.ObservedAt.IsZero() {
		return fmt.Errorf("%w: zero observation time", ErrMalformedObservation)
	}
	return nil
}

// Occurrence is the append-only record of a single observation. Rows are never
// updated or deleted; rank history is reconstructed by reading them in order.
type Occurrence struct {
	ID         int64     `db:"id"          json:"id"`
	HeadlineID uuid.UUID `db:"headline_id" json:"headline_id"`
	Rank       int       `db:"rank"        json:"rank"`
	ObservedAt time.Time `db:"observed_at" json:"observed_at"`
}

// OccurrenceSummary aggregates a headline's occurrences for report payloads.
// Ranks holds the most recent ranks first, capped at the configured history
// depth; Count is the full occurrence count.
type OccurrenceSummary struct {
	Count int   `json:"count"`
	Ranks []int `json:"ranks"`
}

// HeadlineFilter narrows headline listings
type HeadlineFilter struct {
	PlatformID *string    `form:"source"`
	Since      *time.Time `form:"since" time_format:"2006-01-02T15:04:05Z07:00"` // last_seen_at lower bound
	Keyword    *string    `form:"keyword"`
	Limit      int        `form:"limit"`
}
