// Package push delivers generated reports to a notification channel and
// keeps the audit trail of attempts. Delivery never retries on its own:
// a failed push stays failed and the next scheduled round starts fresh.
package push

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jonesrussell/trendwatch/internal/config"
	"github.com/jonesrussell/trendwatch/internal/logger"
	"github.com/jonesrussell/trendwatch/internal/metrics"
	"github.com/jonesrussell/trendwatch/internal/models"
)

// Store is the slice of storage the dispatcher writes push outcomes to
type Store interface {
	RecordPush(ctx context.Context, record *models.PushRecord) (*models.PushRecord, error)
}

// statusSuppressed labels suppressed attempts in the push counter. It is a
// metrics-only outcome: suppressed pushes leave no audit row.
const statusSuppressed = "suppressed"

// Dispatcher decides whether a report goes out and records what happened
type Dispatcher struct {
	store      Store
	channel    Channel
	signatures *SignatureStore
	collectors *metrics.Collectors
	activity   *metrics.Tracker
	sendEmpty  bool
	log        logger.Logger
}

// NewDispatcher creates a dispatcher. signatures and activity may be nil
// when Redis is not configured; nil collectors register into a private
// registry so one-shot CLI pushes work without the metrics endpoint.
func NewDispatcher(
	store Store,
	channel Channel,
	signatures *SignatureStore,
	collectors *metrics.Collectors,
	activity *metrics.Tracker,
	cfg config.PushConfig,
	log logger.Logger,
) *Dispatcher {
	if collectors == nil {
		collectors = metrics.NewCollectors(prometheus.NewRegistry())
	}

	return &Dispatcher{
		store:      store,
		channel:    channel,
		signatures: signatures,
		collectors: collectors,
		activity:   activity,
		sendEmpty:  cfg.SendEmpty,
		log:        log,
	}
}

// Dispatch delivers one report and returns its audit record.
//
// Empty reports return models.ErrEmptyReport unless send_empty is set. A
// report whose signature matches the last delivered one is suppressed:
// logged and counted, but no delivery and no record, returning (nil, nil).
// A delivery failure still writes a failed record and is returned as the
// error.
func (d *Dispatcher) Dispatch(ctx context.Context, report *models.Report) (*models.PushRecord, error) {
	if report.IsEmpty() && !d.sendEmpty {
		d.log.Info("push skipped, report is empty",
			logger.String("mode", string(report.Mode)))
		return nil, models.ErrEmptyReport
	}

	signature := Signature(report)

	repeat, err := d.signatures.IsRepeat(ctx, signature)
	if err != nil {
		// Redis trouble must not block notifications.
		d.log.Warn("failed to check push signature", logger.Error(err))
	}
	if repeat {
		d.log.Info("push suppressed, content unchanged since last delivery",
			logger.String("mode", string(report.Mode)),
			logger.Int("headlines", report.TotalHeadlines))
		d.collectors.Pushes.WithLabelValues(statusSuppressed).Inc()
		return nil, nil
	}

	record := &models.PushRecord{
		Mode:          string(report.Mode),
		Channel:       d.channel.Name(),
		Signature:     signature,
		HeadlineCount: report.TotalHeadlines,
		Status:        models.PushStatusSent,
		PushedAt:      time.Now(),
	}

	sendErr := d.channel.Send(ctx, report)
	if sendErr != nil {
		record.Status = models.PushStatusFailed
		record.Error = sendErr.Error()
		d.log.Error("push failed",
			logger.String("mode", record.Mode),
			logger.String("channel", record.Channel),
			logger.Error(sendErr))
	} else if rememberErr := d.signatures.Remember(ctx, signature); rememberErr != nil {
		d.log.Warn("failed to store push signature", logger.Error(rememberErr))
	}

	d.collectors.Pushes.WithLabelValues(record.Status).Inc()
	if activityErr := d.activity.RecordPush(ctx, metrics.RecentPush{
		Mode:          record.Mode,
		Status:        record.Status,
		HeadlineCount: record.HeadlineCount,
		PushedAt:      record.PushedAt,
	}); activityErr != nil {
		d.log.Warn("failed to record push activity", logger.Error(activityErr))
	}

	stored, recordErr := d.store.RecordPush(ctx, record)
	if recordErr != nil {
		if sendErr != nil {
			d.log.Error("failed to record push", logger.Error(recordErr))
			return record, fmt.Errorf("failed to deliver report: %w", sendErr)
		}
		return record, fmt.Errorf("report delivered but failed to record push: %w", recordErr)
	}

	if sendErr != nil {
		return stored, fmt.Errorf("failed to deliver report: %w", sendErr)
	}

	d.log.Info("report pushed",
		logger.String("mode", record.Mode),
		logger.String("channel", record.Channel),
		logger.Int("headlines", record.HeadlineCount))
	return stored, nil
}
