// Package report builds mode-scoped snapshots of matched headlines: the
// daily window, everything new since the last successful push, or the most
// recent crawl session. Selection is read-only and safe to run while a
// session is in progress.
package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/trendwatch/internal/config"
	"github.com/jonesrussell/trendwatch/internal/logger"
	"github.com/jonesrussell/trendwatch/internal/models"
)

// Store is the slice of storage the generator reads from
type Store interface {
	NewHeadlinesSince(ctx context.Context, since time.Time, inclusive bool) ([]models.Headline, error)
	HeadlinesLastSeenBetween(ctx context.Context, from, to time.Time) ([]models.Headline, error)
	LatestSession(ctx context.Context) (*models.CrawlSession, error)
	LastSuccessfulPushAt(ctx context.Context) (time.Time, error)
	OccurrenceSummaries(ctx context.Context, headlineIDs []uuid.UUID, rankDepth int) (map[uuid.UUID]models.OccurrenceSummary, error)
}

// Matcher is the slice of the filter engine the generator needs
type Matcher interface {
	MatchingGroups(title string) []uuid.UUID
	Groups() []models.WordGroup
}

// Generator assembles reports from stored headlines and the active word
// groups.
type Generator struct {
	store         Store
	matcher       Matcher
	loc           *time.Location
	rankDepth     int
	highlightRank int
	log           logger.Logger
}

// NewGenerator creates a report generator. The timezone only affects the
// daily day boundary; an unknown name falls back to UTC.
func NewGenerator(store Store, matcher Matcher, cfg config.ReportConfig, log logger.Logger) *Generator {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.UTC
	}
	rankDepth := cfg.RankHistory
	if rankDepth <= 0 {
		rankDepth = 10
	}

	return &Generator{
		store:         store,
		matcher:       matcher,
		loc:           loc,
		rankDepth:     rankDepth,
		highlightRank: cfg.HighlightRank,
		log:           log,
	}
}

// Generate builds a report for the given mode as of the given time. A zero
// asOf means now. An empty selection yields an empty report, never an
// error.
func (g *Generator) Generate(ctx context.Context, mode models.ReportMode, asOf time.Time) (*models.Report, error) {
	if asOf.IsZero() {
		asOf = time.Now()
	}

	headlines, windowStart, err := g.selectHeadlines(ctx, mode, asOf)
	if err != nil {
		return nil, err
	}

	report := &models.Report{
		Mode:        mode,
		GeneratedAt: time.Now(),
		WindowStart: windowStart,
		BySource:    make(map[string][]models.ReportHeadline),
	}
	if len(headlines) == 0 {
		return report, nil
	}

	groups := g.matcher.Groups()

	// A headline matching no group is dropped, except when no groups are
	// configured at all: then everything passes unfiltered.
	type match struct {
		headline models.Headline
		groupIDs []uuid.UUID
	}
	kept := make([]match, 0, len(headlines))
	for _, h := range headlines {
		ids := g.matcher.MatchingGroups(h.Title)
		if len(ids) == 0 && len(groups) > 0 {
			continue
		}
		kept = append(kept, match{headline: h, groupIDs: ids})
	}
	if len(kept) == 0 {
		return report, nil
	}

	ids := make([]uuid.UUID, len(kept))
	for i, m := range kept {
		ids[i] = m.headline.ID
	}
	summaries, err := g.store.OccurrenceSummaries(ctx, ids, g.rankDepth)
	if err != nil {
		return nil, fmt.Errorf("failed to load occurrence summaries: %w", err)
	}

	keyByID := make(map[uuid.UUID]string, len(groups))
	for _, grp := range groups {
		keyByID[grp.ID] = grp.GroupKey
	}

	sections := make(map[uuid.UUID][]models.ReportHeadline, len(groups))
	for _, m := range kept {
		h := m.headline
		summary := summaries[h.ID]

		entry := models.ReportHeadline{
			ID:               h.ID,
			SourcePlatformID: h.SourcePlatformID,
			SourceName:       h.SourceName,
			Title:            h.Title,
			URL:              h.URL,
			MobileURL:        h.MobileURL,
			FirstSeenAt:      h.FirstSeenAt,
			LastSeenAt:       h.LastSeenAt,
			Ranks:            summary.Ranks,
			Count:            summary.Count,
			IsHot:            isHot(summary.Ranks, g.highlightRank),
		}
		for _, groupID := range m.groupIDs {
			entry.MatchedGroups = append(entry.MatchedGroups, keyByID[groupID])
		}

		report.BySource[h.SourceName] = append(report.BySource[h.SourceName], entry)
		report.TotalHeadlines++

		for _, groupID := range m.groupIDs {
			sections[groupID] = append(sections[groupID], entry)
		}
	}

	report.ByGroup = g.buildGroupSections(groups, sections)

	g.log.Debug("report generated",
		logger.String("mode", string(mode)),
		logger.Int("headlines", report.TotalHeadlines),
		logger.Int("groups", len(report.ByGroup)))

	return report, nil
}

// selectHeadlines resolves the mode's time window and loads its headlines
func (g *Generator) selectHeadlines(ctx context.Context, mode models.ReportMode, asOf time.Time) ([]models.Headline, time.Time, error) {
	switch mode {
	case models.ModeDaily:
		return g.selectDaily(ctx, asOf)

	case models.ModeIncremental:
		lastPush, err := g.store.LastSuccessfulPushAt(ctx)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				// No successful push yet: incremental degrades to daily.
				return g.selectDaily(ctx, asOf)
			}
			return nil, time.Time{}, fmt.Errorf("failed to resolve last push time: %w", err)
		}
		// Strictly after: a headline first seen exactly at the push time
		// was already delivered.
		headlines, err := g.store.NewHeadlinesSince(ctx, lastPush, false)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to select incremental headlines: %w", err)
		}
		return headlines, lastPush, nil

	case models.ModeCurrent:
		session, err := g.store.LatestSession(ctx)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, asOf, nil
			}
			return nil, time.Time{}, fmt.Errorf("failed to load latest session: %w", err)
		}
		from, to := session.Window(asOf)
		headlines, err := g.store.HeadlinesLastSeenBetween(ctx, from, to)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to select session headlines: %w", err)
		}
		return headlines, from, nil

	default:
		return nil, time.Time{}, fmt.Errorf("%w: %q", models.ErrUnknownMode, mode)
	}
}

func (g *Generator) selectDaily(ctx context.Context, asOf time.Time) ([]models.Headline, time.Time, error) {
	start := startOfDay(asOf, g.loc)
	headlines, err := g.store.NewHeadlinesSince(ctx, start, true)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to select daily headlines: %w", err)
	}
	return headlines, start, nil
}

// buildGroupSections orders each group's matches and applies its display
// cap. Groups that matched nothing are omitted.
func (g *Generator) buildGroupSections(groups []models.WordGroup, sections map[uuid.UUID][]models.ReportHeadline) []models.GroupSection {
	result := make([]models.GroupSection, 0, len(sections))
	for _, grp := range groups {
		entries := sections[grp.ID]
		if len(entries) == 0 {
			continue
		}

		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].LastSeenAt.Equal(entries[j].LastSeenAt) {
				return entries[i].ID.String() < entries[j].ID.String()
			}
			return entries[i].LastSeenAt.After(entries[j].LastSeenAt)
		})

		total := len(entries)
		truncated := false
		if grp.MaxDisplayCount > 0 && total > grp.MaxDisplayCount {
			entries = entries[:grp.MaxDisplayCount]
			truncated = true
		}

		result = append(result, models.GroupSection{
			GroupKey:     grp.GroupKey,
			Position:     grp.Position,
			TotalMatched: total,
			Truncated:    truncated,
			Headlines:    entries,
		})
	}
	return result
}

// startOfDay returns midnight of t's calendar day in loc
func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// isHot reports whether any recent rank reaches the highlight threshold.
// Rank 1 is the top of a list, so lower is better.
func isHot(ranks []int, threshold int) bool {
	if threshold <= 0 {
		return false
	}
	for _, rank := range ranks {
		if rank <= threshold {
			return true
		}
	}
	return false
}
