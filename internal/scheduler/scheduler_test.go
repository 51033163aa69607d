package scheduler_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/trendwatch/internal/config"
	"github.com/jonesrussell/trendwatch/internal/logger"
	"github.com/jonesrussell/trendwatch/internal/models"
	"github.com/jonesrussell/trendwatch/internal/scheduler"
)

type fakeCrawler struct {
	mu      sync.Mutex
	session *models.CrawlSession
	err     error
	calls   int
}

func (c *fakeCrawler) Run(context.Context) (*models.CrawlSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.session, nil
}

type fakeReporter struct {
	report *models.Report
	err    error
	mode   models.ReportMode
	calls  int
}

func (r *fakeReporter) Generate(_ context.Context, mode models.ReportMode, _ time.Time) (*models.Report, error) {
	r.calls++
	r.mode = mode
	if r.err != nil {
		return nil, r.err
	}
	return r.report, nil
}

type fakePusher struct {
	err   error
	calls int
}

func (p *fakePusher) Dispatch(_ context.Context, _ *models.Report) (*models.PushRecord, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &models.PushRecord{ID: uuid.New(), Status: models.PushStatusSent}, nil
}

type fakeMirror struct {
	calls int
	last  *models.CrawlSession
}

func (m *fakeMirror) MirrorSession(_ context.Context, session *models.CrawlSession) error {
	m.calls++
	m.last = session
	return nil
}

type fakeStats struct {
	calls    int
	statDate time.Time
	from     time.Time
	to       time.Time
}

func (s *fakeStats) RecomputeDailyStats(_ context.Context, statDate, from, to time.Time) error {
	s.calls++
	s.statDate, s.from, s.to = statDate, from, to
	return nil
}

func completedSession() *models.CrawlSession {
	now := time.Now()
	return &models.CrawlSession{
		ID:          uuid.New(),
		Status:      models.SessionStatusCompleted,
		StartedAt:   now.Add(-time.Minute),
		CompletedAt: &now,
	}
}

func sampleReport() *models.Report {
	return &models.Report{
		Mode: models.ModeIncremental,
		BySource: map[string][]models.ReportHeadline{
			"weibo": {{ID: uuid.New()}},
		},
		TotalHeadlines: 1,
	}
}

func TestNewRejectsUnknownMode(t *testing.T) {
	_, err := scheduler.New(&fakeCrawler{}, nil, nil, nil, nil,
		config.SchedulerConfig{}, config.ReportConfig{Mode: "hourly"}, logger.NewNopLogger())
	assert.ErrorIs(t, err, models.ErrUnknownMode)
}

func TestStartRejectsBadSpec(t *testing.T) {
	s, err := scheduler.New(&fakeCrawler{}, nil, nil, nil, nil,
		config.SchedulerConfig{CrawlSpec: "not a cron spec"}, config.ReportConfig{}, logger.NewNopLogger())
	require.NoError(t, err)

	err = s.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crawl job")
}

func TestStartStopLifecycle(t *testing.T) {
	s, err := scheduler.New(&fakeCrawler{session: completedSession()}, &fakeReporter{report: sampleReport()},
		&fakePusher{}, nil, &fakeStats{},
		config.SchedulerConfig{CrawlSpec: "*/30 * * * *", PushSpec: "0 * * * *", StatsSpec: "5 0 * * *"},
		config.ReportConfig{}, logger.NewNopLogger())
	require.NoError(t, err)

	require.NoError(t, s.Start())
	s.Stop()
}

func TestRunCrawlPushesOnTail(t *testing.T) {
	crawler := &fakeCrawler{session: completedSession()}
	reporter := &fakeReporter{report: sampleReport()}
	pusher := &fakePusher{}
	mirror := &fakeMirror{}

	s, err := scheduler.New(crawler, reporter, pusher, mirror, nil,
		config.SchedulerConfig{CrawlSpec: "*/30 * * * *"},
		config.ReportConfig{Mode: "current"}, logger.NewNopLogger())
	require.NoError(t, err)

	s.RunCrawl()

	assert.Equal(t, 1, crawler.calls)
	assert.Equal(t, 1, mirror.calls)
	assert.Equal(t, crawler.session.ID, mirror.last.ID)
	assert.Equal(t, 1, reporter.calls)
	assert.Equal(t, models.ModeCurrent, reporter.mode)
	assert.Equal(t, 1, pusher.calls)
}

func TestRunCrawlHonorsDedicatedPushSchedule(t *testing.T) {
	crawler := &fakeCrawler{session: completedSession()}
	reporter := &fakeReporter{report: sampleReport()}
	pusher := &fakePusher{}
	mirror := &fakeMirror{}

	s, err := scheduler.New(crawler, reporter, pusher, mirror, nil,
		config.SchedulerConfig{CrawlSpec: "*/30 * * * *", PushSpec: "0 * * * *"},
		config.ReportConfig{}, logger.NewNopLogger())
	require.NoError(t, err)

	s.RunCrawl()

	assert.Equal(t, 1, crawler.calls)
	assert.Equal(t, 1, mirror.calls)
	assert.Equal(t, 0, pusher.calls, "push rides its own schedule")
}

func TestRunCrawlFailureSkipsDownstream(t *testing.T) {
	crawler := &fakeCrawler{err: fmt.Errorf("database down")}
	reporter := &fakeReporter{report: sampleReport()}
	pusher := &fakePusher{}
	mirror := &fakeMirror{}

	s, err := scheduler.New(crawler, reporter, pusher, mirror, nil,
		config.SchedulerConfig{}, config.ReportConfig{}, logger.NewNopLogger())
	require.NoError(t, err)

	s.RunCrawl()

	assert.Equal(t, 0, mirror.calls)
	assert.Equal(t, 0, pusher.calls)
}

func TestRunCrawlFailedSessionNotMirrored(t *testing.T) {
	session := completedSession()
	session.Status = models.SessionStatusFailed
	crawler := &fakeCrawler{session: session}
	reporter := &fakeReporter{report: sampleReport()}
	pusher := &fakePusher{}
	mirror := &fakeMirror{}

	s, err := scheduler.New(crawler, reporter, pusher, mirror, nil,
		config.SchedulerConfig{}, config.ReportConfig{}, logger.NewNopLogger())
	require.NoError(t, err)

	s.RunCrawl()

	assert.Equal(t, 0, mirror.calls, "failed rounds are not mirrored")
	// The push cycle still runs; an unchanged dataset yields an empty
	// incremental report and is skipped downstream.
	assert.Equal(t, 1, pusher.calls)
}

func TestRunPushSwallowsEmptyReport(t *testing.T) {
	reporter := &fakeReporter{report: &models.Report{Mode: models.ModeIncremental}}
	pusher := &fakePusher{err: models.ErrEmptyReport}

	s, err := scheduler.New(&fakeCrawler{}, reporter, pusher, nil, nil,
		config.SchedulerConfig{}, config.ReportConfig{}, logger.NewNopLogger())
	require.NoError(t, err)

	s.RunPush()
	assert.Equal(t, 1, pusher.calls)
}

func TestRecomputeStatsTargetsPreviousDay(t *testing.T) {
	stats := &fakeStats{}
	s, err := scheduler.New(&fakeCrawler{}, nil, nil, nil, stats,
		config.SchedulerConfig{}, config.ReportConfig{Timezone: "UTC"}, logger.NewNopLogger())
	require.NoError(t, err)

	s.RecomputeStats()

	require.Equal(t, 1, stats.calls)
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	assert.True(t, stats.statDate.Equal(today.AddDate(0, 0, -1)),
		"want previous day, got %v", stats.statDate)
	assert.True(t, stats.from.Equal(stats.statDate))
	assert.True(t, stats.to.Equal(today))
}
