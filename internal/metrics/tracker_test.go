package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/trendwatch/internal/logger"
	"github.com/jonesrussell/trendwatch/internal/metrics"
)

func newTestTracker(t *testing.T) (*metrics.Tracker, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return metrics.NewTracker(client, logger.NewNopLogger()), mr
}

func TestRecordCrawl(t *testing.T) {
	tracker, mr := newTestTracker(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, tracker.RecordCrawl(ctx, metrics.RecentCrawl{
		SessionID:     "s-1",
		Status:        "completed",
		HeadlineCount: 12,
		SourcesOK:     3,
		FinishedAt:    now,
	}))
	require.NoError(t, tracker.RecordCrawl(ctx, metrics.RecentCrawl{
		SessionID:     "s-2",
		Status:        "completed",
		HeadlineCount: 5,
		SourcesOK:     3,
		FinishedAt:    now,
	}))

	stats, err := tracker.GetStats(ctx, 1)
	require.NoError(t, err)
	require.Len(t, stats.Days, 1)
	assert.EqualValues(t, 2, stats.Days[0].Crawls)
	assert.EqualValues(t, 17, stats.Days[0].Headlines)
	assert.EqualValues(t, 2, stats.TotalCrawls)
	assert.WithinDuration(t, now, stats.LastCrawlAt, time.Second)

	recent, err := tracker.RecentCrawls(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "s-2", recent[0].SessionID) // newest first
	assert.Equal(t, "s-1", recent[1].SessionID)
	assert.Equal(t, 12, recent[1].HeadlineCount)

	// Daily counters must not live forever.
	key := metrics.NewRedisKeys(metrics.KeyPrefixMetrics).Crawls(now)
	assert.Positive(t, mr.TTL(key))
}

func TestRecordPush(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tracker.RecordPush(ctx, metrics.RecentPush{
		Mode: "incremental", Status: "sent", HeadlineCount: 8,
	}))
	require.NoError(t, tracker.RecordPush(ctx, metrics.RecentPush{
		Mode: "daily", Status: "failed",
	}))

	stats, err := tracker.GetStats(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Days[0].Pushes)
	assert.EqualValues(t, 0, stats.Days[0].Crawls)

	recent, err := tracker.RecentPushes(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "daily", recent[0].Mode)
	assert.Equal(t, "failed", recent[0].Status)
}

func TestGetStatsSpansDays(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()
	yesterday := time.Now().Add(-24 * time.Hour)

	require.NoError(t, tracker.RecordCrawl(ctx, metrics.RecentCrawl{
		SessionID: "old", Status: "completed", HeadlineCount: 3, FinishedAt: yesterday,
	}))

	stats, err := tracker.GetStats(ctx, 2)
	require.NoError(t, err)
	require.Len(t, stats.Days, 2)
	assert.EqualValues(t, 0, stats.Days[0].Crawls) // today
	assert.EqualValues(t, 1, stats.Days[1].Crawls) // yesterday
	assert.EqualValues(t, 1, stats.TotalCrawls)
	assert.EqualValues(t, 3, stats.TotalHeadlines)
}

func TestNilTrackerIsNoOp(t *testing.T) {
	var tracker *metrics.Tracker
	ctx := context.Background()

	require.NoError(t, tracker.RecordCrawl(ctx, metrics.RecentCrawl{SessionID: "x"}))
	require.NoError(t, tracker.RecordPush(ctx, metrics.RecentPush{Mode: "daily"}))

	stats, err := tracker.GetStats(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, stats.Days)

	recent, err := tracker.RecentCrawls(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, recent)
}
