package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// ReportMode selects which time window a report covers
type ReportMode string

// Report modes
const (
	// ModeDaily covers headlines first seen since the start of the current day
	// in the configured timezone.
	ModeDaily ReportMode = "daily"
	// ModeIncremental covers headlines first seen strictly after the last
	// successful push; it degrades to daily when no push has happened yet.
	ModeIncremental ReportMode = "incremental"
	// ModeCurrent covers headlines still present in the most recent session.
	ModeCurrent ReportMode = "current"
)

// ParseReportMode maps a mode string to a ReportMode
func ParseReportMode(s string) (ReportMode, error) {
	switch ReportMode(s) {
	case ModeDaily, ModeIncremental, ModeCurrent:
		return ReportMode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Report is one generated snapshot of matched headlines: the same entries
// arranged both per source platform and per interest group.
type Report struct {
	Mode           ReportMode                  `json:"mode"`
	GeneratedAt    time.Time                   `json:"generated_at"`
	WindowStart    time.Time                   `json:"window_start"` // earliest admissible timestamp
	BySource       map[string][]ReportHeadline `json:"by_source"`    // keyed by source name
	ByGroup        []GroupSection              `json:"by_group"`     // word list order
	TotalHeadlines int                         `json:"total_headlines"`
}

// IsEmpty reports whether the report carries no headlines at all
func (r *Report) IsEmpty() bool {
	return r.TotalHeadlines == 0
}

// HeadlineIDs returns the distinct headline ids in the report, sorted, so two
// reports with the same content hash identically. The push layer uses this for
// repeat suppression.
func (r *Report) HeadlineIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, headlines := range r.BySource {
		for _, h := range headlines {
			if _, ok := seen[h.ID]; ok {
				continue
			}
			seen[h.ID] = struct{}{}
			ids = append(ids, h.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}

// GroupSection is one interest group's slice of the report
type GroupSection struct {
	GroupKey     string           `json:"group_key"`
	Position     int              `json:"position"`
	TotalMatched int              `json:"total_matched"` // before truncation
	Truncated    bool             `json:"truncated"`
	Headlines    []ReportHeadline `json:"headlines"`
}

// ReportHeadline is one entry in a report. Ranks holds the most recent list
// positions first, capped at the configured history depth.
type ReportHeadline struct {
	ID               uuid.UUID `json:"id"`
	SourcePlatformID string    `json:"source_platform_id"`
	SourceName       string    `json:"source_name"`
	Title            string    `json:"title"`
	URL              string    `json:"url,omitempty"`
	MobileURL        string    `json:"mobile_url,omitempty"`
	FirstSeenAt      time.Time `json:"first_seen_at"`
	LastSeenAt       time.Time `json:"last_seen_at"`
	Ranks            []int     `json:"ranks,omitempty"`
	Count            int       `json:"count"`                    // total occurrences
	IsHot            bool      `json:"is_hot,omitempty"`         // best recent rank within the highlight threshold
	MatchedGroups    []string  `json:"matched_groups,omitempty"` // group keys in word list order
}
