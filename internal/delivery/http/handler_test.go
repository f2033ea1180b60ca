package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/driveshare/marketing-dispatch/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "s3cret"

type mockRunner struct {
	calls int
	runFn func(ctx context.Context) (domain.RunResult, error)
}

func (m *mockRunner) Run(ctx context.Context) (domain.RunResult, error) {
	m.calls++
	if m.runFn != nil {
		return m.runFn(ctx)
	}
	return domain.RunResult{}, nil
}

type mockStats struct {
	gotLimit  int
	historyFn func(ctx context.Context, limit int) ([]domain.DailyStat, error)
}

func (m *mockStats) History(ctx context.Context, limit int) ([]domain.DailyStat, error) {
	m.gotLimit = limit
	if m.historyFn != nil {
		return m.historyFn(ctx, limit)
	}
	return []domain.DailyStat{}, nil
}

type trackCall struct {
	eventType   domain.TrackingEventType
	recipientID string
}

type mockTracking struct {
	calls []trackCall
	err   error
}

func (m *mockTracking) Track(ctx context.Context, eventType domain.TrackingEventType, recipientID string) error {
	m.calls = append(m.calls, trackCall{eventType, recipientID})
	return m.err
}

func newTestRouter(runner *mockRunner, stats *mockStats, tracking *mockTracking) http.Handler {
	r := chi.NewRouter()
	NewHandler(runner, stats, tracking, testAPIKey, "https://driveshare.test/cars").Routes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, target, apiKey string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if apiKey != "" {
		req.Header.Set(APIKeyHeader, apiKey)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestTrigger_MissingAPIKey(t *testing.T) {
	runner := &mockRunner{}
	rec := do(t, newTestRouter(runner, &mockStats{}, &mockTracking{}), http.MethodPost, "/api/marketing/trigger", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, runner.calls)
}

func TestTrigger_WrongAPIKey(t *testing.T) {
	runner := &mockRunner{}
	rec := do(t, newTestRouter(runner, &mockStats{}, &mockTracking{}), http.MethodPost, "/api/marketing/trigger", "s3cret-but-longer")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, runner.calls)
}

func TestTrigger_Success(t *testing.T) {
	runner := &mockRunner{runFn: func(ctx context.Context) (domain.RunResult, error) {
		return domain.RunResult{RunID: "run-1", Sent: 3, Failed: 2}, nil
	}}
	rec := do(t, newTestRouter(runner, &mockStats{}, &mockTracking{}), http.MethodPost, "/api/marketing/trigger", testAPIKey)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"sent": 3}`, rec.Body.String())
}

func TestTrigger_PersistenceFailure(t *testing.T) {
	runner := &mockRunner{runFn: func(ctx context.Context) (domain.RunResult, error) {
		return domain.RunResult{Sent: 1}, &domain.PersistenceError{Op: "claim recipient", Err: errors.New("connection refused")}
	}}
	rec := do(t, newTestRouter(runner, &mockStats{}, &mockTracking{}), http.MethodPost, "/api/marketing/trigger", testAPIKey)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1, runner.calls)
}

func TestTrigger_MethodNotAllowed(t *testing.T) {
	runner := &mockRunner{}
	rec := do(t, newTestRouter(runner, &mockStats{}, &mockTracking{}), http.MethodGet, "/api/marketing/trigger", testAPIKey)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, 0, runner.calls)
}

func TestStats(t *testing.T) {
	day := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	stats := &mockStats{historyFn: func(ctx context.Context, limit int) ([]domain.DailyStat, error) {
		return []domain.DailyStat{{Date: day, SentCount: 5, OpenCount: 2, ClickCount: 1}}, nil
	}}
	router := newTestRouter(&mockRunner{}, stats, &mockTracking{})

	rec := do(t, router, http.MethodGet, "/api/marketing/stats", testAPIKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultStatsLimit, stats.gotLimit)

	var resp StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Stats, 1)
	assert.Equal(t, 5, resp.Stats[0].SentCount)
	assert.Contains(t, rec.Body.String(), `"open_count":2`)

	rec = do(t, router, http.MethodGet, "/api/marketing/stats?limit=7", testAPIKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, stats.gotLimit)
}

func TestStats_Errors(t *testing.T) {
	stats := &mockStats{historyFn: func(ctx context.Context, limit int) ([]domain.DailyStat, error) {
		return nil, &domain.PersistenceError{Op: "list daily stats", Err: errors.New("timeout")}
	}}
	router := newTestRouter(&mockRunner{}, stats, &mockTracking{})

	assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodGet, "/api/marketing/stats", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/marketing/stats?limit=abc", testAPIKey).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/marketing/stats?limit=-1", testAPIKey).Code)
	assert.Equal(t, http.StatusInternalServerError, do(t, router, http.MethodGet, "/api/marketing/stats", testAPIKey).Code)
}

func TestTrackOpen(t *testing.T) {
	tracking := &mockTracking{}
	rec := do(t, newTestRouter(&mockRunner{}, &mockStats{}, tracking), http.MethodGet, "/api/marketing/track/open?rid=user-1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/gif", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "GIF89a"))
	assert.Equal(t, []trackCall{{domain.TrackingOpen, "user-1"}}, tracking.calls)
}

func TestTrackOpen_FailureStillServesPixel(t *testing.T) {
	tracking := &mockTracking{err: errors.New("broker unavailable")}
	rec := do(t, newTestRouter(&mockRunner{}, &mockStats{}, tracking), http.MethodGet, "/api/marketing/track/open?rid=user-1", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, tracking.calls, 1)
}

func TestTrackClick(t *testing.T) {
	tracking := &mockTracking{}
	router := newTestRouter(&mockRunner{}, &mockStats{}, tracking)

	rec := do(t, router, http.MethodGet, "/api/marketing/track/click?rid=user-9", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://driveshare.test/cars", rec.Header().Get("Location"))
	assert.Equal(t, []trackCall{{domain.TrackingClick, "user-9"}}, tracking.calls)

	rec = do(t, router, http.MethodGet, "/api/marketing/track/click", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Len(t, tracking.calls, 1, "requests without a recipient are not recorded")
}

func TestRequireAPIKey_EmptyConfiguredKey(t *testing.T) {
	called := false
	h := RequireAPIKey("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	rec := do(t, h, http.MethodPost, "/", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}
