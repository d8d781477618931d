package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screepskit/screepskit/internal/core/client"
	"github.com/screepskit/screepskit/internal/core/ratelimit"
)

func TestObserveRequest(t *testing.T) {
	c := New()

	c.ObserveRequest(ratelimit.MethodGet, "/game/time", 200, 40*time.Millisecond, nil)
	c.ObserveRequest(ratelimit.MethodGet, "/game/time", 200, 60*time.Millisecond, nil)
	c.ObserveRequest(ratelimit.MethodGet, "/game/time", 0, time.Second, &client.Error{Kind: client.KindTransport, Err: errors.New("dial")})
	c.ObserveRequest(ratelimit.MethodGet, "/game/time", 502, time.Second, &client.Error{Kind: client.KindDecode})

	assert.Equal(t, 2.0, testutil.ToFloat64(c.requestsTotal.WithLabelValues("GET", "/game/time", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requestsTotal.WithLabelValues("GET", "/game/time", "none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requestErrors.WithLabelValues("GET", "/game/time", "transport")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requestErrors.WithLabelValues("GET", "/game/time", "decode")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.requestDuration))
}

func TestObserveRateLimit(t *testing.T) {
	c := New()

	c.ObserveRateLimit(ratelimit.MethodGet, "/game/room-terrain", ratelimit.RateLimit{Limit: 360, Period: ratelimit.PeriodHour, Remaining: 12, Reset: 1700000000})
	assert.Equal(t, 12.0, testutil.ToFloat64(c.limitRemaining.WithLabelValues("GET", "/game/room-terrain")))
	assert.Equal(t, 360.0, testutil.ToFloat64(c.limitTotal.WithLabelValues("GET", "/game/room-terrain")))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(c.limitReset.WithLabelValues("GET", "/game/room-terrain")))

	c.ObserveWait(ratelimit.MethodGet, "/game/room-terrain", 5*time.Second)
	assert.Equal(t, 1, testutil.CollectAndCount(c.waitDuration))
}

func TestPublishSnapshot(t *testing.T) {
	c := New()
	snapshot := ratelimit.NewRegistry().Snapshot()

	c.PublishSnapshot(snapshot)
	assert.Equal(t, len(snapshot), testutil.CollectAndCount(c.limitRemaining))
	assert.Equal(t, 120.0, testutil.ToFloat64(c.limitRemaining.WithLabelValues("", "")))
}

func TestRegistryExposition(t *testing.T) {
	c := New()
	c.RecordHTTP("/health", "GET", 200, time.Millisecond)
	c.RecordPanic()

	expected := `
# HELP screepskit_panics_total Recovered panics in the status server
# TYPE screepskit_panics_total counter
screepskit_panics_total 1
`
	require.NoError(t, testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected), "screepskit_panics_total"))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("/health", "GET", "200")))
}

func TestCollectorsAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.RecordPanic()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.panics))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.panics))
}
