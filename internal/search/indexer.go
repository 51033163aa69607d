// Package search maintains an optional Elasticsearch mirror of the headline
// corpus for keyword queries. The relational store stays authoritative:
// indexing happens after the fact, and every failure here is loggable and
// non-fatal. A nil *Indexer means search is disabled.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"

	"github.com/jonesrussell/trendwatch/internal/logger"
	"github.com/jonesrussell/trendwatch/internal/models"
)

// ErrDisabled is returned by query methods when search is not configured
var ErrDisabled = errors.New("search is not enabled")

// DefaultIndex is the index name used when none is configured
const DefaultIndex = "trendwatch_headlines"

const defaultSearchSize = 50

// Document is the indexed shape of one headline
type Document struct {
	ID               string    `json:"id"`
	SourcePlatformID string    `json:"source_platform_id"`
	SourceName       string    `json:"source_name"`
	Title            string    `json:"title"`
	URL              string    `json:"url,omitempty"`
	MobileURL        string    `json:"mobile_url,omitempty"`
	FirstSeenAt      time.Time `json:"first_seen_at"`
	LastSeenAt       time.Time `json:"last_seen_at"`
	LatestRank       int       `json:"latest_rank,omitempty"`
}

// Indexer mirrors headlines into one Elasticsearch index
type Indexer struct {
	client *es.Client
	index  string
	log    logger.Logger
}

// NewIndexer creates an indexer writing to the given index. An empty index
// name falls back to DefaultIndex.
func NewIndexer(client *es.Client, index string, log logger.Logger) *Indexer {
	if index == "" {
		index = DefaultIndex
	}
	return &Indexer{client: client, index: index, log: log}
}

// Enabled reports whether search is configured
func (i *Indexer) Enabled() bool {
	return i != nil
}

// LatestRanks extracts each headline's most recent rank from its occurrence
// summary, for indexing alongside the document.
func LatestRanks(summaries map[uuid.UUID]models.OccurrenceSummary) map[uuid.UUID]int {
	ranks := make(map[uuid.UUID]int, len(summaries))
	for id, summary := range summaries {
		if len(summary.Ranks) > 0 {
			ranks[id] = summary.Ranks[0]
		}
	}
	return ranks
}

// IndexHeadlines bulk-indexes the given headlines, one document per
// headline keyed by its id, so re-indexing after a later session is an
// upsert. A nil indexer is a no-op.
func (i *Indexer) IndexHeadlines(ctx context.Context, headlines []models.Headline, latestRanks map[uuid.UUID]int) error {
	if i == nil || len(headlines) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, h := range headlines {
		meta := map[string]any{
			"index": map[string]any{
				"_index": i.index,
				"_id":    h.ID.String(),
			},
		}
		if err := json.NewEncoder(&buf).Encode(meta); err != nil {
			return fmt.Errorf("failed to encode bulk meta: %w", err)
		}

		doc := Document{
			ID:               h.ID.String(),
			SourcePlatformID: h.SourcePlatformID,
			SourceName:       h.SourceName,
			Title:            h.Title,
			URL:              h.URL,
			MobileURL:        h.MobileURL,
			FirstSeenAt:      h.FirstSeenAt,
			LastSeenAt:       h.LastSeenAt,
			LatestRank:       latestRanks[h.ID],
		}
		if err := json.NewEncoder(&buf).Encode(doc); err != nil {
			return fmt.Errorf("failed to encode document: %w", err)
		}
	}

	res, err := i.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		i.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("bulk request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("bulk indexing error: %s", res.String())
	}

	var bulkResp struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return fmt.Errorf("failed to decode bulk response: %w", err)
	}
	if bulkResp.Errors {
		failed := 0
		for _, item := range bulkResp.Items {
			for _, result := range item {
				if result.Status >= 300 {
					failed++
				}
			}
		}
		return fmt.Errorf("failed to index %d of %d headlines", failed, len(headlines))
	}

	i.log.Debug("headlines indexed",
		logger.String("index", i.index),
		logger.Int("count", len(headlines)))
	return nil
}

// SearchTitles runs a keyword match on titles, newest last-seen first.
// A zero since means no lower bound; limit <= 0 falls back to the default
// page size.
func (i *Indexer) SearchTitles(ctx context.Context, keyword string, since time.Time, limit int) ([]Document, error) {
	if i == nil {
		return nil, ErrDisabled
	}
	if limit <= 0 {
		limit = defaultSearchSize
	}

	must := []any{
		map[string]any{
			"match": map[string]any{
				"title": keyword,
			},
		},
	}
	boolQuery := map[string]any{"must": must}
	if !since.IsZero() {
		boolQuery["filter"] = []any{
			map[string]any{
				"range": map[string]any{
					"last_seen_at": map[string]any{
						"gte": since,
					},
				},
			},
		}
	}

	query := map[string]any{
		"query": map[string]any{"bool": boolQuery},
		"size":  limit,
		"sort": []map[string]any{
			{
				"last_seen_at": map[string]any{
					"order": "desc",
				},
			},
		},
	}

	queryBytes, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(i.index),
		i.client.Search.WithBody(bytes.NewReader(queryBytes)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error searching: %s", res.String())
	}

	var searchResult struct {
		Hits struct {
			Hits []struct {
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&searchResult); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	docs := make([]Document, 0, len(searchResult.Hits.Hits))
	for _, hit := range searchResult.Hits.Hits {
		docs = append(docs, hit.Source)
	}
	return docs, nil
}

// Ping verifies the Elasticsearch connection, for health reporting
func (i *Indexer) Ping(ctx context.Context) error {
	if i == nil {
		return ErrDisabled
	}

	res, err := i.client.Ping(i.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to ping Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error pinging Elasticsearch: %s", res.String())
	}
	return nil
}
