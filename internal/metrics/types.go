package metrics

import "time"

// RecentCrawl is one finished crawl round in the recent-activity list
type RecentCrawl struct {
	SessionID     string    `json:"session_id"`
	Status        string    `json:"status"`
	HeadlineCount int       `json:"headline_count"`
	SourcesOK     int       `json:"sources_ok"`
	SourcesFailed int       `json:"sources_failed"`
	FinishedAt    time.Time `json:"finished_at"`
}

// RecentPush is one push attempt in the recent-activity list
type RecentPush struct {
	Mode          string    `json:"mode"`
	Status        string    `json:"status"`
	HeadlineCount int       `json:"headline_count"`
	PushedAt      time.Time `json:"pushed_at"`
}

// DayActivity holds one day's counters, date stamped in UTC
type DayActivity struct {
	Date      string `json:"date"`
	Crawls    int64  `json:"crawls"`
	Pushes    int64  `json:"pushes"`
	Headlines int64  `json:"headlines"`
}

// Stats aggregates daily activity counters, most recent day first
type Stats struct {
	Days           []DayActivity `json:"days"`
	TotalCrawls    int64         `json:"total_crawls"`
	TotalPushes    int64         `json:"total_pushes"`
	TotalHeadlines int64         `json:"total_headlines"`
	LastCrawlAt    time.Time     `json:"last_crawl_at"`
}
