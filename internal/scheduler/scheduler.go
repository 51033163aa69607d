// Package scheduler drives the recurring work: crawl rounds, report
// pushes, and the daily stats recompute.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/trendwatch/internal/config"
	"github.com/jonesrussell/trendwatch/internal/logger"
	"github.com/jonesrussell/trendwatch/internal/models"
)

// Crawler runs one crawl round
type Crawler interface {
	Run(ctx context.Context) (*models.CrawlSession, error)
}

// Reporter builds the report a scheduled push delivers
type Reporter interface {
	Generate(ctx context.Context, mode models.ReportMode, asOf time.Time) (*models.Report, error)
}

// Pusher delivers a report
type Pusher interface {
	Dispatch(ctx context.Context, report *models.Report) (*models.PushRecord, error)
}

// SessionMirror copies a finished session into the search index
type SessionMirror interface {
	MirrorSession(ctx context.Context, session *models.CrawlSession) error
}

// StatsStore recomputes the daily aggregates
type StatsStore interface {
	RecomputeDailyStats(ctx context.Context, statDate, from, to time.Time) error
}

// Scheduler owns the cron instance and the job glue between the crawl,
// report, push, and stats components. With an empty push_spec the push
// cycle rides directly on the tail of each crawl round instead of its own
// schedule.
type Scheduler struct {
	cron     *cron.Cron
	crawler  Crawler
	reporter Reporter
	pusher   Pusher
	mirror   SessionMirror
	stats    StatsStore
	cfg      config.SchedulerConfig
	pushMode models.ReportMode
	loc      *time.Location
	log      logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler. reporter and pusher may be nil when pushing is
// disabled; mirror may be nil when search is disabled.
func New(
	crawler Crawler,
	reporter Reporter,
	pusher Pusher,
	mirror SessionMirror,
	stats StatsStore,
	cfg config.SchedulerConfig,
	reportCfg config.ReportConfig,
	log logger.Logger,
) (*Scheduler, error) {
	mode := models.ModeIncremental
	if reportCfg.Mode != "" {
		parsed, err := models.ParseReportMode(reportCfg.Mode)
		if err != nil {
			return nil, err
		}
		mode = parsed
	}

	loc, err := time.LoadLocation(reportCfg.Timezone)
	if err != nil {
		loc = time.UTC
	}

	// Standard 5-field specs, panics in jobs recovered and logged.
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:     c,
		crawler:  crawler,
		reporter: reporter,
		pusher:   pusher,
		mirror:   mirror,
		stats:    stats,
		cfg:      cfg,
		pushMode: mode,
		loc:      loc,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start registers the configured jobs and starts the cron loop
func (s *Scheduler) Start() error {
	if s.cfg.CrawlSpec != "" {
		if _, err := s.cron.AddFunc(s.cfg.CrawlSpec, s.RunCrawl); err != nil {
			return fmt.Errorf("failed to schedule crawl job: %w", err)
		}
	}
	if s.cfg.PushSpec != "" && s.pusher != nil {
		if _, err := s.cron.AddFunc(s.cfg.PushSpec, s.RunPush); err != nil {
			return fmt.Errorf("failed to schedule push job: %w", err)
		}
	}
	if s.cfg.StatsSpec != "" && s.stats != nil {
		if _, err := s.cron.AddFunc(s.cfg.StatsSpec, s.RecomputeStats); err != nil {
			return fmt.Errorf("failed to schedule stats job: %w", err)
		}
	}

	s.cron.Start()
	s.log.Info("scheduler started",
		logger.String("crawl_spec", s.cfg.CrawlSpec),
		logger.String("push_spec", s.cfg.PushSpec),
		logger.String("stats_spec", s.cfg.StatsSpec),
		logger.Int("jobs", len(s.cron.Entries())))
	return nil
}

// Stop cancels running jobs and waits for the cron loop to drain
func (s *Scheduler) Stop() {
	s.cancel()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.log.Info("scheduler stopped")
}

// RunCrawl is the scheduled crawl job: one round, then the search mirror,
// then the push cycle when no dedicated push schedule exists. Also the
// entry point for running a round on demand.
func (s *Scheduler) RunCrawl() {
	session, err := s.crawler.Run(s.ctx)
	if err != nil {
		if errors.Is(err, models.ErrNoActiveSource) {
			s.log.Warn("scheduled crawl skipped, no active sources")
			return
		}
		s.log.Error("scheduled crawl failed", logger.Error(err))
		return
	}

	if session.Status == models.SessionStatusCompleted {
		if err := s.mirrorSession(session); err != nil {
			s.log.Warn("failed to mirror session into search index",
				logger.String("session_id", session.ID.String()),
				logger.Error(err))
		}
	}

	// Without a dedicated push schedule, push on the tail of every round.
	if s.cfg.PushSpec == "" && s.pusher != nil {
		s.RunPush()
	}
}

func (s *Scheduler) mirrorSession(session *models.CrawlSession) error {
	if s.mirror == nil {
		return nil
	}
	return s.mirror.MirrorSession(s.ctx, session)
}

// RunPush is the scheduled push job: generate the configured report mode
// and hand it to the dispatcher.
func (s *Scheduler) RunPush() {
	if s.reporter == nil || s.pusher == nil {
		return
	}

	report, err := s.reporter.Generate(s.ctx, s.pushMode, time.Now())
	if err != nil {
		s.log.Error("scheduled report generation failed",
			logger.String("mode", string(s.pushMode)),
			logger.Error(err))
		return
	}

	if _, err := s.pusher.Dispatch(s.ctx, report); err != nil {
		if errors.Is(err, models.ErrEmptyReport) {
			s.log.Debug("scheduled push skipped, nothing to report")
			return
		}
		s.log.Error("scheduled push failed", logger.Error(err))
	}
}

// RecomputeStats is the scheduled stats job
func (s *Scheduler) RecomputeStats() {
	// Recompute the previous day in the report timezone: the 00:05 default
	// spec lands just after that day has closed.
	now := time.Now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	statDate := today.AddDate(0, 0, -1)

	if err := s.stats.RecomputeDailyStats(s.ctx, statDate, statDate, today); err != nil {
		s.log.Error("daily stats recompute failed",
			logger.Time("stat_date", statDate),
			logger.Error(err))
		return
	}
	s.log.Info("daily stats recomputed", logger.Time("stat_date", statDate))
}
