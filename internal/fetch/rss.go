package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"
)

// httpPrefix is the scheme prefix used to decide if a GUID is a usable URL
const httpPrefix = "http"

// rssFetcher treats an RSS or Atom feed as a trending list: feed order is
// list order, so the rank of an entry is its position plus one.
type rssFetcher struct {
	client    *http.Client
	userAgent string
}

func newRSSFetcher(client *http.Client, userAgent string) *rssFetcher {
	return &rssFetcher{client: client, userAgent: userAgent}
}

func (f *rssFetcher) Fetch(ctx context.Context, endpoint string) ([]Item, error) {
	body, err := fetchBody(ctx, f.client, endpoint, f.userAgent)
	if err != nil {
		return nil, err
	}

	parsed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed from %s: %w", endpoint, err)
	}

	items := make([]Item, 0, len(parsed.Items))
	for i, entry := range parsed.Items {
		link := extractLink(entry)
		if link == "" {
			continue
		}
		items = append(items, Item{
			Title: entry.Title,
			URL:   link,
			Rank:  i + 1,
		})
	}
	return items, nil
}

// extractLink returns the best available URL from a feed entry, preferring
// the explicit Link field and falling back to a GUID that looks like a URL.
func extractLink(entry *gofeed.Item) string {
	if entry.Link != "" {
		return entry.Link
	}
	if strings.HasPrefix(entry.GUID, httpPrefix) {
		return entry.GUID
	}
	return ""
}
