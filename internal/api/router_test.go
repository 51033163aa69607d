package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/trendwatch/internal/api"
	"github.com/jonesrussell/trendwatch/internal/config"
	"github.com/jonesrussell/trendwatch/internal/logger"
	"github.com/jonesrussell/trendwatch/internal/metrics"
	"github.com/jonesrussell/trendwatch/internal/models"
	"github.com/jonesrussell/trendwatch/internal/search"
)

type fakeStore struct {
	sources     []models.Source
	headline    *models.Headline
	headlines   []models.Headline
	occurrences []models.Occurrence
	session     *models.CrawlSession
	sessions    []models.CrawlSession
	groups      []models.WordGroup
	daily       []models.DailyStat
	pushes      []models.PushRecord

	pingErr    error
	sessionErr error

	gotFilter     *models.HeadlineFilter
	gotActiveOnly bool
	gotLimit      int
	gotFrom       time.Time
	gotTo         time.Time
	listCalls     int
}

func (f *fakeStore) ListSources(_ context.Context, activeOnly bool) ([]models.Source, error) {
	f.gotActiveOnly = activeOnly
	return f.sources, nil
}

func (f *fakeStore) GetHeadline(_ context.Context, id uuid.UUID) (*models.Headline, error) {
	if f.headline == nil || f.headline.ID != id {
		return nil, models.ErrNotFound
	}
	return f.headline, nil
}

func (f *fakeStore) HeadlinesSince(_ context.Context, filter *models.HeadlineFilter) ([]models.Headline, error) {
	f.listCalls++
	f.gotFilter = filter
	return f.headlines, nil
}

func (f *fakeStore) OccurrencesFor(_ context.Context, _ uuid.UUID, limit int) ([]models.Occurrence, error) {
	f.gotLimit = limit
	return f.occurrences, nil
}

func (f *fakeStore) LatestSession(_ context.Context) (*models.CrawlSession, error) {
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	return f.session, nil
}

func (f *fakeStore) ListSessions(_ context.Context, limit int) ([]models.CrawlSession, error) {
	f.gotLimit = limit
	return f.sessions, nil
}

func (f *fakeStore) ActiveWordGroups(_ context.Context) ([]models.WordGroup, error) {
	return f.groups, nil
}

func (f *fakeStore) DailyStats(_ context.Context, from, to time.Time) ([]models.DailyStat, error) {
	f.gotFrom, f.gotTo = from, to
	return f.daily, nil
}

func (f *fakeStore) ListPushes(_ context.Context, limit int) ([]models.PushRecord, error) {
	f.gotLimit = limit
	return f.pushes, nil
}

func (f *fakeStore) Ping(_ context.Context) error { return f.pingErr }

type fakeReporter struct {
	report  *models.Report
	err     error
	gotMode models.ReportMode
}

func (f *fakeReporter) Generate(_ context.Context, mode models.ReportMode, _ time.Time) (*models.Report, error) {
	f.gotMode = mode
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

type fakeSearcher struct {
	docs       []search.Document
	err        error
	pingErr    error
	gotKeyword string
	gotSince   time.Time
	gotLimit   int
	calls      int
}

func (f *fakeSearcher) SearchTitles(_ context.Context, keyword string, since time.Time, limit int) ([]search.Document, error) {
	f.calls++
	f.gotKeyword = keyword
	f.gotSince = since
	f.gotLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

func (f *fakeSearcher) Ping(_ context.Context) error { return f.pingErr }

func newTestRouter(t *testing.T, deps api.Deps) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.NewRegistry()
	}
	router := api.NewRouter(deps, config.ServerConfig{}, logger.NewNopLogger())
	return router.SetupRoutes()
}

func doGet(t *testing.T, engine *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthHealthy(t *testing.T) {
	engine := newTestRouter(t, api.Deps{Store: &fakeStore{}, Version: "1.2.3"})

	w := doGet(t, engine, "/health")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "trendwatch", body["service"])
	assert.Equal(t, "1.2.3", body["version"])

	db, ok := body["database"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, db["connected"])

	redisHealth, ok := body["redis"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, redisHealth["configured"])
}

func TestHealthDegradedWhenDatabaseDown(t *testing.T) {
	store := &fakeStore{pingErr: errors.New("connection refused")}
	engine := newTestRouter(t, api.Deps{Store: store})

	w := doGet(t, engine, "/health")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "degraded", body["status"])
}

func TestHealthReportsRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	engine := newTestRouter(t, api.Deps{Store: &fakeStore{}, Redis: client})

	w := doGet(t, engine, "/health")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "healthy", body["status"])

	redisHealth, ok := body["redis"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, redisHealth["configured"])
	assert.Equal(t, true, redisHealth["connected"])
}

func TestHealthSearchDownDoesNotDegrade(t *testing.T) {
	searcher := &fakeSearcher{pingErr: errors.New("no living connections")}
	engine := newTestRouter(t, api.Deps{Store: &fakeStore{}, Searcher: searcher})

	w := doGet(t, engine, "/health")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "healthy", body["status"])

	searchHealth, ok := body["search"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, searchHealth["configured"])
	assert.Equal(t, false, searchHealth["connected"])
}

func TestGetReport(t *testing.T) {
	reporter := &fakeReporter{report: &models.Report{
		Mode:           models.ModeDaily,
		GeneratedAt:    time.Now(),
		TotalHeadlines: 3,
	}}
	engine := newTestRouter(t, api.Deps{Store: &fakeStore{}, Reporter: reporter})

	w := doGet(t, engine, "/api/v1/reports/daily")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ModeDaily, reporter.gotMode)

	body := decodeBody(t, w)
	assert.Equal(t, "daily", body["mode"])
	assert.EqualValues(t, 3, body["total_headlines"])
}

func TestGetReportUnknownMode(t *testing.T) {
	reporter := &fakeReporter{}
	engine := newTestRouter(t, api.Deps{Store: &fakeStore{}, Reporter: reporter})

	w := doGet(t, engine, "/api/v1/reports/hourly")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, reporter.gotMode)
}

func TestGetReportGeneratorFailure(t *testing.T) {
	reporter := &fakeReporter{err: errors.New("store offline")}
	engine := newTestRouter(t, api.Deps{Store: &fakeStore{}, Reporter: reporter})

	w := doGet(t, engine, "/api/v1/reports/current")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestListHeadlinesBindsFilter(t *testing.T) {
	store := &fakeStore{headlines: []models.Headline{{ID: uuid.New(), Title: "比亚迪出海提速"}}}
	engine := newTestRouter(t, api.Deps{Store: store})

	w := doGet(t, engine, "/api/v1/headlines?source=weibo&since=2026-08-20T10:00:00Z&limit=5")

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, store.gotFilter)
	require.NotNil(t, store.gotFilter.PlatformID)
	assert.Equal(t, "weibo", *store.gotFilter.PlatformID)
	require.NotNil(t, store.gotFilter.Since)
	assert.Equal(t, time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC), store.gotFilter.Since.UTC())
	assert.Equal(t, 5, store.gotFilter.Limit)

	body := decodeBody(t, w)
	assert.EqualValues(t, 1, body["count"])
}

func TestListHeadlinesServedBySearch(t *testing.T) {
	store := &fakeStore{}
	searcher := &fakeSearcher{docs: []search.Document{{
		ID:    uuid.NewString(),
		Title: "华为发布会定档",
	}}}
	engine := newTestRouter(t, api.Deps{Store: store, Searcher: searcher})

	w := doGet(t, engine, "/api/v1/headlines?keyword=华为&limit=10")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, searcher.calls)
	assert.Equal(t, "华为", searcher.gotKeyword)
	assert.Equal(t, 10, searcher.gotLimit)
	assert.Zero(t, store.listCalls)

	body := decodeBody(t, w)
	assert.EqualValues(t, 1, body["count"])
}

func TestListHeadlinesSearchFallsBackToStore(t *testing.T) {
	store := &fakeStore{headlines: []models.Headline{{ID: uuid.New()}}}
	searcher := &fakeSearcher{err: errors.New("index unavailable")}
	engine := newTestRouter(t, api.Deps{Store: store, Searcher: searcher})

	w := doGet(t, engine, "/api/v1/headlines?keyword=华为")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, searcher.calls)
	assert.Equal(t, 1, store.listCalls)
}

func TestListHeadlinesPlatformFilterSkipsSearch(t *testing.T) {
	store := &fakeStore{}
	searcher := &fakeSearcher{}
	engine := newTestRouter(t, api.Deps{Store: store, Searcher: searcher})

	w := doGet(t, engine, "/api/v1/headlines?keyword=华为&source=weibo")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, searcher.calls)
	assert.Equal(t, 1, store.listCalls)
}

func TestGetHeadline(t *testing.T) {
	headline := &models.Headline{ID: uuid.New(), Title: "微博热搜第一"}
	store := &fakeStore{headline: headline}
	engine := newTestRouter(t, api.Deps{Store: store})

	w := doGet(t, engine, "/api/v1/headlines/"+headline.ID.String())

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, headline.ID.String(), body["id"])
	assert.Equal(t, headline.Title, body["title"])
}

func TestGetHeadlineNotFound(t *testing.T) {
	engine := newTestRouter(t, api.Deps{Store: &fakeStore{}})

	w := doGet(t, engine, "/api/v1/headlines/"+uuid.NewString())

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetHeadlineRejectsMalformedID(t *testing.T) {
	engine := newTestRouter(t, api.Deps{Store: &fakeStore{}})

	w := doGet(t, engine, "/api/v1/headlines/not-a-uuid")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListOccurrences(t *testing.T) {
	store := &fakeStore{occurrences: []models.Occurrence{
		{ID: 1, Rank: 3},
		{ID: 2, Rank: 7},
	}}
	engine := newTestRouter(t, api.Deps{Store: store})

	w := doGet(t, engine, "/api/v1/headlines/"+uuid.NewString()+"/occurrences?limit=5")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, store.gotLimit)

	body := decodeBody(t, w)
	assert.EqualValues(t, 2, body["count"])
}

func TestListOccurrencesDefaultLimit(t *testing.T) {
	store := &fakeStore{}
	engine := newTestRouter(t, api.Deps{Store: store})

	w := doGet(t, engine, "/api/v1/headlines/"+uuid.NewString()+"/occurrences")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 50, store.gotLimit)
}

func TestGetLatestSession(t *testing.T) {
	session := &models.CrawlSession{ID: uuid.New(), Status: models.SessionStatusCompleted}
	store := &fakeStore{session: session}
	engine := newTestRouter(t, api.Deps{Store: store})

	w := doGet(t, engine, "/api/v1/sessions/latest")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, session.ID.String(), body["id"])
	assert.Equal(t, models.SessionStatusCompleted, body["status"])
}

func TestGetLatestSessionNotFound(t *testing.T) {
	store := &fakeStore{sessionErr: models.ErrNotFound}
	engine := newTestRouter(t, api.Deps{Store: store})

	w := doGet(t, engine, "/api/v1/sessions/latest")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListSessionsDefaultLimit(t *testing.T) {
	store := &fakeStore{sessions: []models.CrawlSession{{ID: uuid.New()}}}
	engine := newTestRouter(t, api.Deps{Store: store})

	w := doGet(t, engine, "/api/v1/sessions")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 20, store.gotLimit)

	body := decodeBody(t, w)
	assert.EqualValues(t, 1, body["count"])
}

func TestListWordGroups(t *testing.T) {
	store := &fakeStore{groups: []models.WordGroup{{
		ID:       uuid.New(),
		GroupKey: "华为",
		Words:    []models.GroupWord{{Word: "华为", Kind: models.WordKindNormal}},
	}}}
	engine := newTestRouter(t, api.Deps{Store: store})

	w := doGet(t, engine, "/api/v1/word-groups")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.EqualValues(t, 1, body["count"])
}

func TestListSourcesActiveOnly(t *testing.T) {
	store := &fakeStore{sources: []models.Source{{PlatformID: "weibo", Name: "微博"}}}
	engine := newTestRouter(t, api.Deps{Store: store})

	w := doGet(t, engine, "/api/v1/sources?active_only=true")

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, store.gotActiveOnly)

	body := decodeBody(t, w)
	assert.EqualValues(t, 1, body["count"])
}

func TestDailyStatsDefaultsToLastWeek(t *testing.T) {
	store := &fakeStore{daily: []models.DailyStat{{HeadlineCount: 12}}}
	engine := newTestRouter(t, api.Deps{Store: store})

	w := doGet(t, engine, "/api/v1/stats/daily")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 6*24*time.Hour, store.gotTo.Sub(store.gotFrom))
	assert.Equal(t, 0, store.gotTo.Hour())
	assert.Equal(t, 0, store.gotTo.Minute())
}

func TestDailyStatsExplicitRange(t *testing.T) {
	store := &fakeStore{}
	engine := newTestRouter(t, api.Deps{Store: store})

	w := doGet(t, engine, "/api/v1/stats/daily?from=2026-08-01&to=2026-08-03")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), store.gotFrom)
	assert.Equal(t, time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC), store.gotTo)

	body := decodeBody(t, w)
	assert.Equal(t, "2026-08-01", body["from"])
	assert.Equal(t, "2026-08-03", body["to"])
}

func TestDailyStatsRejectsBadInput(t *testing.T) {
	engine := newTestRouter(t, api.Deps{Store: &fakeStore{}})

	w := doGet(t, engine, "/api/v1/stats/daily?from=08/01/2026")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doGet(t, engine, "/api/v1/stats/daily?from=2026-08-10&to=2026-08-01")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestActivityWithoutTracker(t *testing.T) {
	engine := newTestRouter(t, api.Deps{Store: &fakeStore{}})

	w := doGet(t, engine, "/api/v1/stats/activity")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)

	stats, ok := body["stats"].(map[string]any)
	require.True(t, ok)
	assert.NotNil(t, stats["days"])
	assert.Equal(t, []any{}, body["recent_crawls"])
	assert.Equal(t, []any{}, body["recent_pushes"])
}

func TestActivityWithTracker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tracker := metrics.NewTracker(client, logger.NewNopLogger())
	require.NoError(t, tracker.RecordCrawl(context.Background(), metrics.RecentCrawl{
		SessionID:     uuid.NewString(),
		Status:        models.SessionStatusCompleted,
		HeadlineCount: 42,
		FinishedAt:    time.Now(),
	}))

	engine := newTestRouter(t, api.Deps{Store: &fakeStore{}, Activity: tracker})

	w := doGet(t, engine, "/api/v1/stats/activity?days=3")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)

	crawls, ok := body["recent_crawls"].([]any)
	require.True(t, ok)
	require.Len(t, crawls, 1)
	entry, ok := crawls[0].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 42, entry["headline_count"])
}

func TestListPushes(t *testing.T) {
	store := &fakeStore{pushes: []models.PushRecord{{
		ID:     uuid.New(),
		Mode:   "daily",
		Status: models.PushStatusSent,
	}}}
	engine := newTestRouter(t, api.Deps{Store: store})

	w := doGet(t, engine, "/api/v1/pushes?limit=3")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, store.gotLimit)

	body := decodeBody(t, w)
	assert.EqualValues(t, 1, body["count"])
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	collectors := metrics.NewCollectors(reg)
	collectors.Observations.WithLabelValues("weibo").Add(3)

	engine := newTestRouter(t, api.Deps{Store: &fakeStore{}, Gatherer: reg})

	w := doGet(t, engine, "/metrics")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "trendwatch_observations_total")
}
