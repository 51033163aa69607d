// Package fetch turns a source endpoint into an ordered list of trending
// items. One adapter per transport shape (rest, rss, htmllist); the Client
// wraps the adapters with shared rate limiting, per-attempt timeouts and
// retries so callers see a single Fetch call per source.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// maxResponseBodyBytes caps how much of a response body is read (10MB)
const maxResponseBodyBytes = 10 * 1024 * 1024

// Item is one entry from a platform's trending list, in list order
type Item struct {
	Title     string
	URL       string
	MobileURL string
	Rank      int // 1-based list position
}

// Fetcher retrieves the current trending list from one endpoint
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string) ([]Item, error)
}

// fetchBody performs the GET all adapters share: context-scoped request,
// User-Agent header, non-2xx rejection and a capped body read.
func fetchBody(ctx context.Context, client *http.Client, endpoint, userAgent string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", endpoint, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, endpoint)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", endpoint, err)
	}
	return body, nil
}
