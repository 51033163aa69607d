package models

import (
	"time"

	"github.com/google/uuid"
)

// Crawl session statuses. A session leaves running exactly once and never
// returns to it.
const (
	SessionStatusRunning   = "running"
	SessionStatusCompleted = "completed"
	SessionStatusFailed    = "failed"
)

// CrawlSession represents one crawl round across the active sources. It fails
// only when every source fails (or persistence gives out entirely); partial
// success still completes.
type CrawlSession struct {
	ID            uuid.UUID  `db:"id"             json:"id"`
	Status        string     `db:"status"         json:"status"`
	StartedAt     time.Time  `db:"started_at"     json:"started_at"`
	CompletedAt   *time.Time `db:"completed_at"   json:"completed_at,omitempty"`
	SourcesOK     []string   `db:"sources_ok"     json:"sources_ok"`     // platform ids
	SourcesFailed []string   `db:"sources_failed" json:"sources_failed"` // platform ids
	HeadlineCount int        `db:"headline_count" json:"headline_count"` // accepted observations
}

// IsFinal reports whether the session has left the running state
func (s *CrawlSession) IsFinal() bool {
	return s.Status == SessionStatusCompleted || s.Status == SessionStatusFailed
}

// Window returns the session's observation window. For a running session the
// upper bound is now.
func (s *CrawlSession) Window(now time.Time) (time.Time, time.Time) {
	if s.CompletedAt != nil {
		return s.StartedAt, *s.CompletedAt
	}
	return s.StartedAt, now
}

// SessionResult carries the outcome written when a session is finalized
type SessionResult struct {
	Status        string
	SourcesOK     []string
	SourcesFailed []string
	HeadlineCount int
	CompletedAt   time.Time
}
