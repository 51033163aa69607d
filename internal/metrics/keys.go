package metrics

import (
	"fmt"
	"time"
)

const (
	// KeyPrefixMetrics is the prefix for all metrics keys
	KeyPrefixMetrics = "trendwatch:metrics"
	// KeyPrefixCrawls is the prefix for daily crawl-round counters
	KeyPrefixCrawls = "crawls"
	// KeyPrefixPushes is the prefix for daily push counters
	KeyPrefixPushes = "pushes"
	// KeyPrefixHeadlines is the prefix for daily accepted-observation counters
	KeyPrefixHeadlines = "headlines"
	// KeyRecentCrawls is the Redis key for the recent crawl rounds list
	KeyRecentCrawls = "trendwatch:metrics:recent:crawls"
	// KeyRecentPushes is the Redis key for the recent pushes list
	KeyRecentPushes = "trendwatch:metrics:recent:pushes"
	// KeyLastCrawl is the Redis key for the last crawl timestamp
	KeyLastCrawl = "trendwatch:metrics:last_crawl"
	// MaxRecentEntries is the maximum number of entries kept per recent list
	MaxRecentEntries = 100
	// CounterTTLDays is the TTL in days for daily counters
	CounterTTLDays = 30
	// RecentTTLDays is the TTL in days for recent-activity lists
	RecentTTLDays = 7
	// HoursPerDay converts day counts into time.Duration hours
	HoursPerDay = 24
)

// dateFormat stamps daily counter keys; dates are always UTC
const dateFormat = "2006-01-02"

// RedisKeys provides methods to build Redis keys consistently
type RedisKeys struct {
	prefix string
}

// NewRedisKeys creates a new RedisKeys instance
func NewRedisKeys(prefix string) *RedisKeys {
	return &RedisKeys{prefix: prefix}
}

// Crawls returns the daily crawl-round counter key for a date
func (k *RedisKeys) Crawls(date time.Time) string {
	return fmt.Sprintf("%s:%s:%s", k.prefix, KeyPrefixCrawls, date.UTC().Format(dateFormat))
}

// Pushes returns the daily push counter key for a date
func (k *RedisKeys) Pushes(date time.Time) string {
	return fmt.Sprintf("%s:%s:%s", k.prefix, KeyPrefixPushes, date.UTC().Format(dateFormat))
}

// Headlines returns the daily accepted-observation counter key for a date
func (k *RedisKeys) Headlines(date time.Time) string {
	return fmt.Sprintf("%s:%s:%s", k.prefix, KeyPrefixHeadlines, date.UTC().Format(dateFormat))
}
