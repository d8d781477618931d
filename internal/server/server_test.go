package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screepskit/screepskit/internal/config"
	"github.com/screepskit/screepskit/internal/core/client"
	"github.com/screepskit/screepskit/internal/core/ratelimit"
	apperrors "github.com/screepskit/screepskit/internal/errors"
	"github.com/screepskit/screepskit/internal/metrics"
	"github.com/screepskit/screepskit/internal/server/handlers"
)

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/game/time":
			w.Header().Set(ratelimit.HeaderLimit, "120")
			w.Header().Set(ratelimit.HeaderRemaining, "77")
			w.Header().Set(ratelimit.HeaderReset, strconv.FormatInt(time.Now().Add(time.Minute).Unix(), 10))
			_, _ = io.WriteString(w, `{"ok":1,"time":4242}`)
		case "/api/game/shards/info":
			_, _ = io.WriteString(w, `{"ok":1,"shards":[{"name":"shard0","rooms":10}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<html>not found</html>`)
		}
	}))
	t.Cleanup(upstream.Close)
	return upstream
}

func newTestServer(t *testing.T, store handlers.HealthChecker) (*Server, *client.Client, *metrics.Collector) {
	t.Helper()
	upstream := newUpstream(t)

	collector := metrics.New()
	c := client.New(client.Config{
		Host:    strings.TrimPrefix(upstream.URL, "http://"),
		Timeout: 5 * time.Second,
	}, client.WithObserver(collector))

	srv := New(config.ServerConfig{Host: "127.0.0.1", Port: 0}, Deps{
		API:        c,
		RateLimits: c.RateLimits(),
		Collector:  collector,
		Store:      store,
		BaseURL:    c.Config().BaseURL(),
	})
	return srv, c, collector
}

func serve(srv *Server, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestServerUsesStandardErrorHandlers(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)

	rec := serve(srv, http.MethodGet, "/does-not-exist")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
	assert.NotEmpty(t, body.Error.RequestID)

	rec = serve(srv, http.MethodPost, "/health")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestTimeRouteUpdatesSharedRegistry(t *testing.T) {
	srv, c, _ := newTestServer(t, nil)

	rec := serve(srv, http.MethodGet, "/time/shard0")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"time":4242`)

	// /game/time has no dedicated quota, so the headers land on the global entry.
	assert.Equal(t, 77, c.RateLimits().Global().Remaining)

	rec = serve(srv, http.MethodGet, "/rate-limits")
	require.Equal(t, http.StatusOK, rec.Code)
	var snapshot handlers.RateLimitsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snapshot))
	assert.Equal(t, 77, snapshot.Entries[0].RateLimit.Remaining)
}

func TestMetricsRouteExposesClientAndServerMetrics(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)

	require.Equal(t, http.StatusOK, serve(srv, http.MethodGet, "/shards").Code)

	rec := serve(srv, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `screepskit_requests_total{code="200",method="GET",path="/game/shards/info"} 1`)
	assert.Contains(t, body, `screepskit_http_requests_total{method="GET",route="/shards",status="200"} 1`)
	assert.Contains(t, body, `screepskit_ratelimit_limit{method="GET",path="/game/room-terrain"} 360`)
}

func TestHealthRouteChecksStore(t *testing.T) {
	srv, _, _ := newTestServer(t, handlers.CheckerFunc(func(context.Context) error { return nil }))

	rec := serve(srv, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body handlers.HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["store"])
}

func TestConcurrentProxyTraffic(t *testing.T) {
	srv, _, collector := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	const workers = 12
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			resp, err := http.Get(ts.URL + "/time/shard0")
			if err == nil {
				_ = resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					err = assert.AnError
				}
			}
			errs <- err
		}()
	}
	for i := 0; i < workers; i++ {
		require.NoError(t, <-errs)
	}

	rec := serve(srv, http.MethodGet, "/metrics")
	assert.Contains(t, rec.Body.String(), `screepskit_requests_total{code="200",method="GET",path="/game/time"} 12`)
	assert.NotNil(t, collector.Registry())
}

func TestRunStopsOnContextCancel(t *testing.T) {
	srv := New(config.ServerConfig{Host: "127.0.0.1", Port: 0, ShutdownTimeout: time.Second}, Deps{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
