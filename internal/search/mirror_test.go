package search_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/trendwatch/internal/logger"
	"github.com/jonesrussell/trendwatch/internal/models"
	"github.com/jonesrussell/trendwatch/internal/search"
)

type fakeMirrorStore struct {
	headlines []models.Headline
	summaries map[uuid.UUID]models.OccurrenceSummary

	gotFrom, gotTo time.Time
	gotDepth       int
}

func (s *fakeMirrorStore) HeadlinesLastSeenBetween(_ context.Context, from, to time.Time) ([]models.Headline, error) {
	s.gotFrom, s.gotTo = from, to
	return s.headlines, nil
}

func (s *fakeMirrorStore) OccurrenceSummaries(_ context.Context, ids []uuid.UUID, rankDepth int) (map[uuid.UUID]models.OccurrenceSummary, error) {
	s.gotDepth = rankDepth
	out := make(map[uuid.UUID]models.OccurrenceSummary, len(ids))
	for _, id := range ids {
		out[id] = s.summaries[id]
	}
	return out, nil
}

func TestMirrorSessionIndexesWindow(t *testing.T) {
	h1 := models.Headline{ID: uuid.New(), Title: "华为发布会", SourceName: "微博"}
	h2 := models.Headline{ID: uuid.New(), Title: "小米汽车", SourceName: "微博"}
	store := &fakeMirrorStore{
		headlines: []models.Headline{h1, h2},
		summaries: map[uuid.UUID]models.OccurrenceSummary{
			h1.ID: {Count: 3, Ranks: []int{1, 4}},
			h2.ID: {Count: 1, Ranks: []int{22}},
		},
	}

	var gotBody []byte
	indexer := newTestIndexer(t, func(req *http.Request) (*http.Response, error) {
		gotBody, _ = io.ReadAll(req.Body)
		return esResponse(http.StatusOK, `{"errors":false,"items":[]}`), nil
	})

	mirror := search.NewMirror(indexer, store, logger.NewNopLogger())
	require.NotNil(t, mirror)

	started := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	completed := started.Add(4 * time.Minute)
	session := &models.CrawlSession{
		ID:          uuid.New(),
		Status:      models.SessionStatusCompleted,
		StartedAt:   started,
		CompletedAt: &completed,
	}

	require.NoError(t, mirror.MirrorSession(context.Background(), session))

	assert.True(t, store.gotFrom.Equal(started))
	assert.True(t, store.gotTo.Equal(completed))
	assert.Equal(t, 1, store.gotDepth, "only the latest rank is indexed")

	lines := strings.Split(strings.TrimSpace(string(gotBody)), "\n")
	assert.Len(t, lines, 4, "meta and document line per headline")
	assert.Contains(t, string(gotBody), `"latest_rank":1`)
	assert.Contains(t, string(gotBody), `"latest_rank":22`)
}

func TestMirrorDisabledWithoutIndexer(t *testing.T) {
	store := &fakeMirrorStore{}
	assert.Nil(t, search.NewMirror(nil, store, logger.NewNopLogger()))

	var mirror *search.Mirror
	assert.NoError(t, mirror.MirrorSession(context.Background(), &models.CrawlSession{ID: uuid.New()}))
	assert.True(t, store.gotFrom.IsZero(), "store untouched when disabled")
}
