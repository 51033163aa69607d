package fetch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/trendwatch/internal/config"
	"github.com/jonesrussell/trendwatch/internal/logger"
	"github.com/jonesrussell/trendwatch/internal/models"
)

// Client fetches sources through the registry with a shared outbound rate
// limit, a timeout per attempt and exponential-backoff retries. One Client
// is shared by all crawl workers so the rate limit holds across them.
type Client struct {
	registry *Registry
	limiter  *rate.Limiter
	attempts int
	backoff  time.Duration
	timeout  time.Duration
	log      logger.Logger
}

// NewClient wraps the registry with the crawl fetch policy
func NewClient(registry *Registry, cfg config.CrawlConfig, log logger.Logger) *Client {
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}
	attempts := cfg.Retries
	if attempts < 1 {
		attempts = 1
	}

	return &Client{
		registry: registry,
		limiter:  rate.NewLimiter(limit, burst),
		attempts: attempts,
		backoff:  cfg.RetryBackoff,
		timeout:  cfg.Timeout,
		log:      log,
	}
}

// Fetch retrieves the source's current trending list, retrying transient
// failures. The returned error carries the last attempt's cause.
func (c *Client) Fetch(ctx context.Context, src *models.Source) ([]Item, error) {
	fetcher, err := c.registry.Lookup(src.PlatformID)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("fetch %s aborted: %w", src.PlatformID, err)
		}

		items, err := c.fetchOnce(ctx, fetcher, src.Endpoint)
		if err == nil {
			return items, nil
		}
		lastErr = err

		if attempt < c.attempts {
			delay := c.backoff << (attempt - 1)
			c.log.Warn("fetch attempt failed",
				logger.String("platform_id", src.PlatformID),
				logger.Int("attempt", attempt),
				logger.Int("max_attempts", c.attempts),
				logger.Duration("retry_in", delay),
				logger.Error(err))

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, fmt.Errorf("fetch %s aborted: %w", src.PlatformID, ctx.Err())
			}
		}
	}
	return nil, fmt.Errorf("failed to fetch %s after %d attempts: %w", src.PlatformID, c.attempts, lastErr)
}

// fetchOnce runs a single attempt under the per-attempt timeout
func (c *Client) fetchOnce(ctx context.Context, fetcher Fetcher, endpoint string) ([]Item, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return fetcher.Fetch(ctx, endpoint)
}
