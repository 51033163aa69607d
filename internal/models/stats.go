package models

import (
	"time"

	"github.com/google/uuid"
)

// DailyStat is one day's aggregate for one source, recomputed idempotently
// from headlines and occurrences. Re-running the job for a day is always safe.
type DailyStat struct {
	StatDate      time.Time `db:"stat_date"      json:"stat_date"`
	SourceID      uuid.UUID `db:"source_id"      json:"source_id"`
	HeadlineCount int       `db:"headline_count" json:"headline_count"` // observations that day
	UniqueCount   int       `db:"unique_count"   json:"unique_count"`   // distinct headlines seen
	AvgRank       float64   `db:"avg_rank"       json:"avg_rank"`

	// Populated by joined listings only.
	SourcePlatformID string `db:"source_platform_id" json:"source_platform_id,omitempty"`
	SourceName       string `db:"source_name"        json:"source_name,omitempty"`
}
