package metrics

import (
	"context"
)

// ActivityTracker defines the interface for recording crawl and push
// activity. A nil *Tracker satisfies it as a no-op, so callers work
// unchanged when Redis is absent.
type ActivityTracker interface {
	// RecordCrawl counts a finished crawl round and prepends it to the
	// recent-activity list
	RecordCrawl(ctx context.Context, entry RecentCrawl) error
	// RecordPush counts a push attempt and prepends it to the recent list
	RecordPush(ctx context.Context, entry RecentPush) error
	// GetStats returns daily counters for the last n days, newest first
	GetStats(ctx context.Context, days int) (*Stats, error)
	// RecentCrawls returns the most recent crawl rounds, newest first
	RecentCrawls(ctx context.Context, limit int) ([]RecentCrawl, error)
	// RecentPushes returns the most recent push attempts, newest first
	RecentPushes(ctx context.Context, limit int) ([]RecentPush, error)
}
