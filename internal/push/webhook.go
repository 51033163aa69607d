package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonesrussell/trendwatch/internal/config"
	"github.com/jonesrussell/trendwatch/internal/logger"
	"github.com/jonesrussell/trendwatch/internal/models"
)

// Channel delivers a rendered report to its destination
type Channel interface {
	// Name returns the channel label recorded with each push
	Name() string
	// Send delivers the report; any error means the push failed
	Send(ctx context.Context, report *models.Report) error
}

// maxErrorBodyBytes caps how much of an error response is carried into the
// audit row.
const maxErrorBodyBytes = 2048

const defaultWebhookTimeout = 10 * time.Second

// WebhookChannel POSTs the report as a JSON document to a configured URL.
// The receiver decides rendering; this side only guarantees the payload
// shape.
type WebhookChannel struct {
	name   string
	url    string
	client *http.Client
	log    logger.Logger
}

// NewWebhookChannel creates a webhook channel from the push configuration
func NewWebhookChannel(cfg config.PushConfig, log logger.Logger) (*WebhookChannel, error) {
	if cfg.WebhookURL == "" {
		return nil, errors.New("webhook URL is required")
	}

	name := cfg.Channel
	if name == "" {
		name = "default"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}

	return &WebhookChannel{
		name:   name,
		url:    cfg.WebhookURL,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}, nil
}

// Name returns the configured channel label
func (c *WebhookChannel) Name() string {
	return c.name
}

// Send POSTs the report. Any non-2xx response is a failure; the first bytes
// of the response body become the error detail.
func (c *WebhookChannel) Send(ctx context.Context, report *models.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		detail := strings.TrimSpace(string(body))
		if detail == "" {
			detail = resp.Status
		}
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, detail)
	}
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	c.log.Debug("report delivered",
		logger.String("channel", c.name),
		logger.Int("headlines", report.TotalHeadlines),
		logger.Int("payload_bytes", len(payload)),
		logger.Duration("elapsed", time.Since(start)))
	return nil
}
