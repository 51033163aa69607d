package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/trendwatch/internal/logger"
)

// DefaultStatsDays is how many days GetStats covers when unspecified
const DefaultStatsDays = 7

// Tracker implements ActivityTracker using Redis. Daily counters carry a
// TTL so abandoned deployments do not accumulate keys; recent-activity
// lists are capped with LTRIM. A nil *Tracker is a valid no-op tracker.
type Tracker struct {
	client redis.UniversalClient
	keys   *RedisKeys
	log    logger.Logger
}

var _ ActivityTracker = (*Tracker)(nil)

// NewTracker creates a new activity tracker
func NewTracker(client redis.UniversalClient, log logger.Logger) *Tracker {
	return &Tracker{
		client: client,
		keys:   NewRedisKeys(KeyPrefixMetrics),
		log:    log,
	}
}

// RecordCrawl counts a finished crawl round for its day and prepends it to
// the recent-activity list, all in one pipeline.
func (t *Tracker) RecordCrawl(ctx context.Context, entry RecentCrawl) error {
	if t == nil {
		return nil
	}

	if entry.FinishedAt.IsZero() {
		entry.FinishedAt = time.Now()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal crawl entry: %w", err)
	}

	day := entry.FinishedAt
	counterTTL := CounterTTLDays * HoursPerDay * time.Hour
	recentTTL := RecentTTLDays * HoursPerDay * time.Hour

	pipe := t.client.Pipeline()
	pipe.Incr(ctx, t.keys.Crawls(day))
	pipe.Expire(ctx, t.keys.Crawls(day), counterTTL)
	if entry.HeadlineCount > 0 {
		pipe.IncrBy(ctx, t.keys.Headlines(day), int64(entry.HeadlineCount))
		pipe.Expire(ctx, t.keys.Headlines(day), counterTTL)
	}
	pipe.LPush(ctx, KeyRecentCrawls, data)
	pipe.LTrim(ctx, KeyRecentCrawls, 0, MaxRecentEntries-1)
	pipe.Expire(ctx, KeyRecentCrawls, recentTTL)
	pipe.Set(ctx, KeyLastCrawl, entry.FinishedAt.UTC().Format(time.RFC3339), 0)

	if _, execErr := pipe.Exec(ctx); execErr != nil {
		t.log.Warn("failed to record crawl activity",
			logger.String("session_id", entry.SessionID),
			logger.Error(execErr),
		)
		return fmt.Errorf("record crawl activity: %w", execErr)
	}
	return nil
}

// RecordPush counts a push attempt for its day and prepends it to the
// recent-activity list.
func (t *Tracker) RecordPush(ctx context.Context, entry RecentPush) error {
	if t == nil {
		return nil
	}

	if entry.PushedAt.IsZero() {
		entry.PushedAt = time.Now()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal push entry: %w", err)
	}

	counterTTL := CounterTTLDays * HoursPerDay * time.Hour
	recentTTL := RecentTTLDays * HoursPerDay * time.Hour

	pipe := t.client.Pipeline()
	pipe.Incr(ctx, t.keys.Pushes(entry.PushedAt))
	pipe.Expire(ctx, t.keys.Pushes(entry.PushedAt), counterTTL)
	pipe.LPush(ctx, KeyRecentPushes, data)
	pipe.LTrim(ctx, KeyRecentPushes, 0, MaxRecentEntries-1)
	pipe.Expire(ctx, KeyRecentPushes, recentTTL)

	if _, execErr := pipe.Exec(ctx); execErr != nil {
		t.log.Warn("failed to record push activity",
			logger.String("mode", entry.Mode),
			logger.Error(execErr),
		)
		return fmt.Errorf("record push activity: %w", execErr)
	}
	return nil
}

// GetStats returns daily counters for the last `days` days using one
// pipeline of reads. Missing keys count as zero; redis.Nil from the
// pipeline is expected for days without activity.
func (t *Tracker) GetStats(ctx context.Context, days int) (*Stats, error) {
	if t == nil {
		return &Stats{Days: []DayActivity{}}, nil
	}

	if days <= 0 {
		days = DefaultStatsDays
	}
	if days > CounterTTLDays {
		days = CounterTTLDays
	}

	now := time.Now().UTC()
	crawlCmds := make([]*redis.StringCmd, days)
	pushCmds := make([]*redis.StringCmd, days)
	headlineCmds := make([]*redis.StringCmd, days)

	pipe := t.client.Pipeline()
	for i := 0; i < days; i++ {
		day := now.AddDate(0, 0, -i)
		crawlCmds[i] = pipe.Get(ctx, t.keys.Crawls(day))
		pushCmds[i] = pipe.Get(ctx, t.keys.Pushes(day))
		headlineCmds[i] = pipe.Get(ctx, t.keys.Headlines(day))
	}
	lastCrawlCmd := pipe.Get(ctx, KeyLastCrawl)

	if _, execErr := pipe.Exec(ctx); execErr != nil && !errors.Is(execErr, redis.Nil) {
		return nil, fmt.Errorf("execute stats pipeline: %w", execErr)
	}

	stats := &Stats{Days: make([]DayActivity, 0, days)}
	for i := 0; i < days; i++ {
		day := DayActivity{Date: now.AddDate(0, 0, -i).Format(dateFormat)}
		if v, err := crawlCmds[i].Int64(); err == nil {
			day.Crawls = v
			stats.TotalCrawls += v
		}
		if v, err := pushCmds[i].Int64(); err == nil {
			day.Pushes = v
			stats.TotalPushes += v
		}
		if v, err := headlineCmds[i].Int64(); err == nil {
			day.Headlines = v
			stats.TotalHeadlines += v
		}
		stats.Days = append(stats.Days, day)
	}

	if lastCrawlStr, err := lastCrawlCmd.Result(); err == nil && lastCrawlStr != "" {
		if lastCrawl, parseErr := time.Parse(time.RFC3339, lastCrawlStr); parseErr == nil {
			stats.LastCrawlAt = lastCrawl
		}
	}
	return stats, nil
}

// RecentCrawls returns the most recent crawl rounds, newest first
func (t *Tracker) RecentCrawls(ctx context.Context, limit int) ([]RecentCrawl, error) {
	raw, err := t.recentEntries(ctx, KeyRecentCrawls, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]RecentCrawl, 0, len(raw))
	for _, item := range raw {
		var entry RecentCrawl
		if unmarshalErr := json.Unmarshal([]byte(item), &entry); unmarshalErr != nil {
			t.log.Warn("failed to unmarshal recent crawl entry", logger.Error(unmarshalErr))
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// RecentPushes returns the most recent push attempts, newest first
func (t *Tracker) RecentPushes(ctx context.Context, limit int) ([]RecentPush, error) {
	raw, err := t.recentEntries(ctx, KeyRecentPushes, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]RecentPush, 0, len(raw))
	for _, item := range raw {
		var entry RecentPush
		if unmarshalErr := json.Unmarshal([]byte(item), &entry); unmarshalErr != nil {
			t.log.Warn("failed to unmarshal recent push entry", logger.Error(unmarshalErr))
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (t *Tracker) recentEntries(ctx context.Context, key string, limit int) ([]string, error) {
	if t == nil {
		return nil, nil
	}

	if limit <= 0 {
		limit = 50
	}
	if limit > MaxRecentEntries {
		limit = MaxRecentEntries
	}

	results, err := t.client.LRange(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get recent entries: %w", err)
	}
	return results, nil
}
