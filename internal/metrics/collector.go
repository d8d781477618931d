// Package metrics exposes Prometheus metrics for API traffic, rate-limit
// state and the local status server on a private registry.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/screepskit/screepskit/internal/core/client"
	"github.com/screepskit/screepskit/internal/core/ratelimit"
)

const namespace = "screepskit"

var (
	endpointLabels = []string{"method", "path"}

	// Latency buckets in milliseconds
	latencyBuckets = []float64{
		5, 10, 25,
		50, 100, 250,
		500, 1000, 2500,
		5000, 10000, 30000,
	}

	// Rate-limit waits range from milliseconds to a full day
	waitBuckets = []float64{
		100, 1000, 5000,
		30000, 60000, 300000,
		900000, 3600000, 86400000,
	}
)

// Collector records client and server measurements. It implements
// client.Observer.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestErrors   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	waitDuration    *prometheus.HistogramVec
	limitRemaining  *prometheus.GaugeVec
	limitTotal      *prometheus.GaugeVec
	limitReset      *prometheus.GaugeVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	panics       prometheus.Counter
}

var _ client.Observer = (*Collector)(nil)

// New returns a collector on a fresh registry with the process collector
// registered.
func New() *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,

		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of API requests by status code",
			},
			append(endpointLabels, "code"),
		),
		requestErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "request_errors_total",
				Help:      "API requests that failed before a value was decoded",
			},
			append(endpointLabels, "kind"),
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_ms",
				Help:      "API request latency in milliseconds, excluding rate-limit waits",
				Buckets:   latencyBuckets,
			},
			endpointLabels,
		),
		waitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ratelimit_wait_ms",
				Help:      "Time spent blocked on an exhausted quota in milliseconds",
				Buckets:   waitBuckets,
			},
			endpointLabels,
		),
		limitRemaining: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ratelimit_remaining",
				Help:      "Requests left in the current rate-limit window",
			},
			endpointLabels,
		),
		limitTotal: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ratelimit_limit",
				Help:      "Requests allowed per rate-limit window",
			},
			endpointLabels,
		),
		limitReset: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ratelimit_reset_timestamp_seconds",
				Help:      "Unix time at which the current rate-limit window resets",
			},
			endpointLabels,
		),

		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Status server requests by route and status",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_ms",
				Help:      "Status server latency in milliseconds",
				Buckets:   latencyBuckets,
			},
			[]string{"route"},
		),
		panics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "panics_total",
			Help:      "Recovered panics in the status server",
		}),
	}
}

// Registry returns the registry metrics are registered on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveRequest records one completed or failed API call.
func (c *Collector) ObserveRequest(method ratelimit.Method, path string, statusCode int, elapsed time.Duration, err error) {
	code := "none"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}
	c.requestsTotal.WithLabelValues(string(method), path, code).Inc()
	c.requestDuration.WithLabelValues(string(method), path).Observe(toMillis(elapsed))

	if err != nil {
		c.requestErrors.WithLabelValues(string(method), path, errorKind(err)).Inc()
	}
}

// ObserveWait records a rate-limit sleep.
func (c *Collector) ObserveWait(method ratelimit.Method, path string, wait time.Duration) {
	c.waitDuration.WithLabelValues(string(method), path).Observe(toMillis(wait))
}

// ObserveRateLimit publishes the quota state after a header update.
func (c *Collector) ObserveRateLimit(method ratelimit.Method, path string, limit ratelimit.RateLimit) {
	c.setLimit(string(method), path, limit)
}

// PublishSnapshot sets the rate-limit gauges for every registry entry. The
// global fallback is reported with empty method and path labels.
func (c *Collector) PublishSnapshot(entries []ratelimit.Entry) {
	for _, entry := range entries {
		c.setLimit(string(entry.Method), entry.Path, entry.RateLimit)
	}
}

// RecordHTTP records a status server request.
func (c *Collector) RecordHTTP(route, method string, status int, elapsed time.Duration) {
	c.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(route).Observe(toMillis(elapsed))
}

// RecordPanic records a panic recovery
func (c *Collector) RecordPanic() {
	c.panics.Inc()
}

func (c *Collector) setLimit(method, path string, limit ratelimit.RateLimit) {
	c.limitRemaining.WithLabelValues(method, path).Set(float64(limit.Remaining))
	c.limitTotal.WithLabelValues(method, path).Set(float64(limit.Limit))
	c.limitReset.WithLabelValues(method, path).Set(float64(limit.Reset))
}

func errorKind(err error) string {
	var clientErr *client.Error
	if errors.As(err, &clientErr) {
		return string(clientErr.Kind)
	}
	return "unknown"
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
