package fetch

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jonesrussell/trendwatch/internal/config"
	"github.com/jonesrussell/trendwatch/internal/models"
)

// Registry holds one fetcher per configured source, keyed by platform id.
// Selectors and other adapter shape live only in configuration, so the
// registry is built from the config source list rather than storage rows.
type Registry struct {
	fetchers map[string]Fetcher
}

// NewRegistry builds a fetcher for every configured source. All adapters
// share one HTTP client; timeout caps a single request.
func NewRegistry(sources []config.SourceConfig, userAgent string, timeout time.Duration) (*Registry, error) {
	client := &http.Client{Timeout: timeout}
	reg := &Registry{fetchers: make(map[string]Fetcher, len(sources))}

	for _, src := range sources {
		if _, exists := reg.fetchers[src.PlatformID]; exists {
			return nil, fmt.Errorf("%w: duplicate source %q", models.ErrAlreadyExists, src.PlatformID)
		}

		var (
			fetcher Fetcher
			err     error
		)
		switch src.Adapter {
		case models.AdapterREST:
			fetcher = newRESTFetcher(client, userAgent)
		case models.AdapterRSS:
			fetcher = newRSSFetcher(client, userAgent)
		case models.AdapterHTMLList:
			fetcher, err = newHTMLListFetcher(client, userAgent, src.Selectors)
		default:
			err = fmt.Errorf("unknown adapter %q", src.Adapter)
		}
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.PlatformID, err)
		}

		reg.fetchers[src.PlatformID] = fetcher
	}
	return reg, nil
}

// Register adds or replaces the fetcher for a platform id
func (r *Registry) Register(platformID string, fetcher Fetcher) {
	r.fetchers[platformID] = fetcher
}

// Lookup returns the fetcher for a platform id
func (r *Registry) Lookup(platformID string) (Fetcher, error) {
	fetcher, ok := r.fetchers[platformID]
	if !ok {
		return nil, fmt.Errorf("no fetcher registered for source %q", platformID)
	}
	return fetcher, nil
}
