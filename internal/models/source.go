package models

import (
	"time"

	"github.com/google/uuid"
)

// Adapter names understood by the fetch registry.
const (
	AdapterREST     = "rest"
	AdapterRSS      = "rss"
	AdapterHTMLList = "htmllist"
)

// Source represents one trending platform polled on every crawl round
type Source struct {
	ID         uuid.UUID `db:"id"          json:"id"`
	PlatformID string    `db:"platform_id" json:"platform_id"` // stable identifier, e.g. "weibo"
	Name       string    `db:"name"        json:"name"`        // display name
	Adapter    string    `db:"adapter"     json:"adapter"`     // rest, rss, or htmllist
	Endpoint   string    `db:"endpoint"    json:"endpoint"`
	IsActive   bool      `db:"is_active"   json:"is_active"`
	CreatedAt  time.Time `db:"created_at"  json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"  json:"updated_at"`
}

// SourceUpsert is the shape used when syncing configured sources into
// storage at startup. Deactivated sources keep their history queryable but
// are skipped by new crawl rounds.
type SourceUpsert struct {
	PlatformID string
	Name       string
	Adapter    string
	Endpoint   string
	IsActive   bool
}
