package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// restItem is one entry of a REST trending payload. Some platforms ship the
// mobile link as mobile_url, others as mobileUrl; both are accepted.
type restItem struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	MobileURL    string `json:"mobile_url"`
	MobileURLAlt string `json:"mobileUrl"`
	Rank         *int   `json:"rank"`
}

type restPayload struct {
	Items []restItem `json:"items"`
}

// restFetcher reads JSON trending payloads of the shape
// {"items": [{"title": ..., "url": ..., "rank": ...}, ...]}
type restFetcher struct {
	client    *http.Client
	userAgent string
}

func newRESTFetcher(client *http.Client, userAgent string) *restFetcher {
	return &restFetcher{client: client, userAgent: userAgent}
}

func (f *restFetcher) Fetch(ctx context.Context, endpoint string) ([]Item, error) {
	body, err := fetchBody(ctx, f.client, endpoint, f.userAgent)
	if err != nil {
		return nil, err
	}

	var payload restPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}

	items := make([]Item, 0, len(payload.Items))
	for i, raw := range payload.Items {
		// Entries without an explicit rank take their list position.
		rank := i + 1
		if raw.Rank != nil {
			rank = *raw.Rank
		}

		mobileURL := raw.MobileURL
		if mobileURL == "" {
			mobileURL = raw.MobileURLAlt
		}

		items = append(items, Item{
			Title:     raw.Title,
			URL:       raw.URL,
			MobileURL: mobileURL,
			Rank:      rank,
		})
	}
	return items, nil
}
