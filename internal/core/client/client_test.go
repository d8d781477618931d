package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screepskit/screepskit/internal/core/ratelimit"
)

func newTestClient(t *testing.T, cfg Config, handler http.HandlerFunc, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg.Host = strings.TrimPrefix(srv.URL, "http://")
	cfg.Secure = false
	return New(cfg, opts...), srv
}

func TestBuildURL(t *testing.T) {
	c := New(Config{Host: "example.org", Secure: true})
	require.Equal(t, "https://example.org/api/auth/me", c.BuildURL("/auth/me"))

	c = New(Config{Host: "localhost:21025", Secure: false})
	require.Equal(t, "http://localhost:21025/api/game/time", c.BuildURL("/game/time"))

	require.Equal(t, "https://screeps.com/api", Config{Secure: true}.BaseURL())
	require.Equal(t, "https://screeps.com/api", DefaultConfig().BaseURL())
}

func TestNewDefaults(t *testing.T) {
	c := New(Config{Host: "example.org"})
	require.Equal(t, DefaultTimeout, c.httpClient.Timeout)
	require.NotNil(t, c.RateLimits())
	_, ok := c.Token()
	require.False(t, ok)

	c = New(Config{Host: "example.org", Token: "abc", Timeout: 3 * time.Second})
	require.Equal(t, 3*time.Second, c.httpClient.Timeout)
	token, ok := c.Token()
	require.True(t, ok)
	require.Equal(t, "abc", token)
}

func TestRequestSendsTokenOnBothHeaders(t *testing.T) {
	c, _ := newTestClient(t, Config{Token: "tok-1"}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/me", r.URL.Path)
		assert.Equal(t, "tok-1", r.Header.Get(HeaderToken))
		assert.Equal(t, "tok-1", r.Header.Get(HeaderUsername))
		_, _ = io.WriteString(w, `{"ok":1,"_id":"u1","username":"keqing","gcl":1000000}`)
	})

	resp, err := c.Me(context.Background())
	require.NoError(t, err)
	require.True(t, resp.Success())
	require.Equal(t, "keqing", resp.Username)
	require.Equal(t, uint64(1000000), resp.GCL)
}

func TestRequestWithoutTokenOmitsAuthHeaders(t *testing.T) {
	c, _ := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get(HeaderToken))
		assert.Empty(t, r.Header.Get(HeaderUsername))
		_, _ = io.WriteString(w, `{"ok":1,"time":12345}`)
	})

	resp, err := c.GameTime(context.Background(), "shard3")
	require.NoError(t, err)
	require.Equal(t, int64(12345), resp.Time)
}

func TestResponseTokenIsUsedByNextRequest(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, Config{Token: "old"}, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		switch n {
		case 1:
			assert.Equal(t, "old", r.Header.Get(HeaderToken))
			w.Header().Set("x-token", "new")
		default:
			assert.Equal(t, "new", r.Header.Get(HeaderToken))
			assert.Equal(t, "new", r.Header.Get(HeaderUsername))
		}
		_, _ = io.WriteString(w, `{"ok":1,"username":"keqing"}`)
	})

	_, err := c.Username(context.Background())
	require.NoError(t, err)
	token, ok := c.Token()
	require.True(t, ok)
	require.Equal(t, "new", token)

	_, err = c.Username(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestAuthRequiresCredentials(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, Config{Email: "a@b.c"}, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	resp, err := c.Auth(context.Background())
	require.Nil(t, resp)
	require.Error(t, err)
	require.True(t, IsKind(err, KindConfig))
	require.ErrorIs(t, err, ErrMissingCredentials)
	require.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestAuthPostsCredentials(t *testing.T) {
	c, _ := newTestClient(t, Config{Email: "a@b.c", Password: "secret"}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/signin", r.URL.Path)
		assert.Empty(t, r.URL.RawQuery)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"email": "a@b.c", "password": "secret"}, body)

		w.Header().Set(HeaderToken, "header-token")
		_, _ = io.WriteString(w, `{"ok":1,"token":"body-token"}`)
	})

	resp, err := c.Auth(context.Background())
	require.NoError(t, err)
	require.Equal(t, "body-token", resp.Token)

	token, ok := c.Token()
	require.True(t, ok)
	require.Equal(t, "header-token", token)
}

func TestAuthBodyTokenDoesNotSetHolder(t *testing.T) {
	c, _ := newTestClient(t, Config{Email: "a@b.c", Password: "secret"}, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"ok":1,"token":"body-token"}`)
	})

	resp, err := c.Auth(context.Background())
	require.NoError(t, err)
	require.Equal(t, "body-token", resp.Token)

	_, ok := c.Token()
	require.False(t, ok)
}

func TestGetSendsQueryString(t *testing.T) {
	c, _ := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/user/find", r.URL.Path)
		assert.Equal(t, "keqing", r.URL.Query().Get("username"))
		body, _ := io.ReadAll(r.Body)
		assert.Empty(t, body)
		_, _ = io.WriteString(w, `{"ok":1,"user":{"_id":"u1","username":"keqing","gcl":5000000,"power":4000}}`)
	})

	resp, err := c.FindUserByName(context.Background(), "keqing")
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	require.Equal(t, "u1", resp.User.ID)
	require.Equal(t, uint64(4000), resp.User.Power)
}

func TestRoomEndpointsSendRoomAndShard(t *testing.T) {
	c, _ := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "E13S13", q.Get("room"))
		assert.Equal(t, "shard3", q.Get("shard"))
		switch r.URL.Path {
		case "/api/game/room-objects":
			_, _ = io.WriteString(w, `{"ok":1,"objects":[{"_id":"s1","type":"source","x":1,"y":1,"room":"E13S13","energy":10,"energyCapacity":3000}],"users":{}}`)
		case "/api/game/room-terrain":
			assert.Empty(t, q.Get("encoded"))
			_, _ = io.WriteString(w, `{"ok":1,"terrain":[{"room":"E13S13","x":0,"y":0,"type":"wall"}]}`)
		case "/api/game/room-status":
			_, _ = io.WriteString(w, `{"ok":1,"room":{"_id":"E13S13","status":"normal"}}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	ctx := context.Background()
	objects, err := c.RoomObjects(ctx, "E13S13", "shard3")
	require.NoError(t, err)
	require.Len(t, objects.Objects, 1)

	terrain, err := c.RoomTerrain(ctx, "E13S13", "shard3")
	require.NoError(t, err)
	require.Equal(t, "wall", terrain.Terrain[0].Type)

	status, err := c.RoomStatus(ctx, "E13S13", "shard3")
	require.NoError(t, err)
	require.Equal(t, "normal", status.Room.Status)
}

func TestExecutorDoesNotInspectOK(t *testing.T) {
	c, _ := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/game/room-terrain", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("encoded"))
		_, _ = io.WriteString(w, `{"ok":0,"error":"invalid room"}`)
	})

	resp, err := c.RoomTerrainEncoded(context.Background(), "E13S13", "shard3")
	require.NoError(t, err)
	require.Equal(t, 0, resp.OK)
	require.Error(t, resp.Err())
	require.Contains(t, resp.Err().Error(), "invalid room")
}

func TestDecodeError(t *testing.T) {
	c, _ := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `<html>bad gateway</html>`)
	})

	_, err := c.ShardsInfo(context.Background())
	require.Error(t, err)
	require.True(t, IsKind(err, KindDecode))

	var clientErr *Error
	require.ErrorAs(t, err, &clientErr)
	require.Equal(t, http.StatusBadGateway, clientErr.StatusCode)
	require.Equal(t, PathShardsInfo, clientErr.Path)
	require.Contains(t, err.Error(), "json decode failed (GET /game/shards/info): status 502")
}

func TestTransportError(t *testing.T) {
	c, srv := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := c.ShardsInfo(context.Background())
	require.Error(t, err)
	require.True(t, IsKind(err, KindTransport))
	require.False(t, IsKind(err, KindDecode))
}

func TestTimeoutIsTransportError(t *testing.T) {
	c, _ := newTestClient(t, Config{Timeout: 50 * time.Millisecond}, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	})

	_, err := c.GameTime(context.Background(), "")
	require.Error(t, err)
	require.True(t, IsKind(err, KindTransport))
}

func TestUnsupportedQueryParams(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	err := c.Request(context.Background(), ratelimit.MethodGet, "/game/time", struct{ Shard string }{"shard0"}, nil)
	require.Error(t, err)
	require.True(t, IsKind(err, KindRequest))
	require.Equal(t, int32(0), atomic.LoadInt32(&calls))

	err = c.Request(context.Background(), ratelimit.Method("PUT"), "/game/time", nil, nil)
	require.True(t, IsKind(err, KindRequest))
}

func TestResponseHeadersUpdateRegistry(t *testing.T) {
	c, _ := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-ratelimit-limit", "360")
		w.Header().Set("x-ratelimit-remaining", "359")
		w.Header().Set("x-ratelimit-reset", "1700003600")
		_, _ = io.WriteString(w, `{"ok":1,"terrain":[]}`)
	})

	_, err := c.RoomTerrain(context.Background(), "E1N1", "shard0")
	require.NoError(t, err)

	limit := c.RateLimits().Lookup(ratelimit.MethodGet, PathRoomTerrain)
	require.Equal(t, 360, limit.Limit)
	require.Equal(t, 359, limit.Remaining)
	require.Equal(t, int64(1700003600), limit.Reset)
	require.Equal(t, ratelimit.PeriodHour, limit.Period)
}

type recordingObserver struct {
	mu       sync.Mutex
	requests []int
	waits    []time.Duration
	limits   []ratelimit.RateLimit
}

func (o *recordingObserver) ObserveRequest(_ ratelimit.Method, _ string, statusCode int, _ time.Duration, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requests = append(o.requests, statusCode)
}

func (o *recordingObserver) ObserveWait(_ ratelimit.Method, _ string, wait time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.waits = append(o.waits, wait)
}

func (o *recordingObserver) ObserveRateLimit(_ ratelimit.Method, _ string, limit ratelimit.RateLimit) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.limits = append(o.limits, limit)
}

func TestExhaustedQuotaWaitsBeforeSending(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	var slept []time.Duration
	var sleeps int32
	var sentAfterSleep atomic.Bool

	registry := ratelimit.NewRegistry()
	registry.Clock = func() time.Time { return now }
	registry.Sleep = func(d time.Duration) {
		slept = append(slept, d)
		atomic.AddInt32(&sleeps, 1)
	}
	registry.Restore([]ratelimit.Entry{{
		Method:    ratelimit.MethodGet,
		Path:      PathRoomTerrain,
		RateLimit: ratelimit.RateLimit{Limit: 360, Period: ratelimit.PeriodHour, Remaining: 0, Reset: now.Unix() + 5},
	}})

	observer := &recordingObserver{}
	c, _ := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		sentAfterSleep.Store(atomic.LoadInt32(&sleeps) == 1)
		w.Header().Set("x-ratelimit-limit", "360")
		w.Header().Set("x-ratelimit-remaining", "360")
		w.Header().Set("x-ratelimit-reset", fmt.Sprint(now.Unix()+3600))
		_, _ = io.WriteString(w, `{"ok":1,"terrain":[]}`)
	}, WithRegistry(registry), WithObserver(observer))

	_, err := c.RoomTerrain(context.Background(), "E1N1", "shard0")
	require.NoError(t, err)
	require.Equal(t, []time.Duration{5 * time.Second}, slept)
	require.True(t, sentAfterSleep.Load())

	require.Equal(t, []time.Duration{5 * time.Second}, observer.waits)
	require.Equal(t, []int{http.StatusOK}, observer.requests)
	require.Len(t, observer.limits, 1)
	require.Equal(t, 360, observer.limits[0].Remaining)

	// quota refilled by the response headers
	_, err = c.RoomTerrain(context.Background(), "E1N1", "shard0")
	require.NoError(t, err)
	require.Len(t, slept, 1)
}

func TestWaitIgnoresContextDeadline(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	var slept time.Duration

	registry := ratelimit.NewRegistry()
	registry.Clock = func() time.Time { return now }
	registry.Sleep = func(d time.Duration) { slept += d }
	registry.Restore([]ratelimit.Entry{{RateLimit: ratelimit.RateLimit{Limit: 120, Period: ratelimit.PeriodMinute, Remaining: 0, Reset: now.Unix() + 30}}})

	c, _ := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"ok":1,"time":1}`)
	}, WithRegistry(registry))

	_, err := c.GameTime(context.Background(), "shard0")
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, slept)
}

func TestConcurrentRequests(t *testing.T) {
	var counter int64
	c, _ := newTestClient(t, Config{Token: "seed"}, func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get(HeaderToken))
		n := atomic.AddInt64(&counter, 1)
		w.Header().Set(HeaderToken, fmt.Sprintf("tok-%d", n))
		w.Header().Set("x-ratelimit-limit", "120")
		w.Header().Set("x-ratelimit-remaining", "100")
		w.Header().Set("x-ratelimit-reset", "1700000060")
		_, _ = fmt.Fprintf(w, `{"ok":1,"time":%d}`, n)
	})

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.GameTime(context.Background(), "shard0"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, int64(workers), atomic.LoadInt64(&counter))
	token, ok := c.Token()
	require.True(t, ok)
	require.True(t, strings.HasPrefix(token, "tok-"))
	require.Equal(t, 100, c.RateLimits().Global().Remaining)
}

func TestTokenHolderLastWriterWins(t *testing.T) {
	h := NewTokenHolder("")
	_, ok := h.Get()
	require.False(t, ok)

	h.Set("a")
	h.Set("b")
	token, ok := h.Get()
	require.True(t, ok)
	require.Equal(t, "b", token)
}

func TestErrorFormatting(t *testing.T) {
	err := &Error{Kind: KindConfig, Method: "POST", Path: "/auth/signin", Err: ErrMissingCredentials}
	require.Equal(t, "invalid config (POST /auth/signin): email or password is not configured", err.Error())
	require.False(t, IsKind(fmt.Errorf("plain"), KindConfig))
	require.True(t, IsKind(fmt.Errorf("wrapped: %w", err), KindConfig))
}
