package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/screepskit/screepskit/internal/metrics"
	"github.com/screepskit/screepskit/internal/server/handlers"
)

// MetricsHandler serves the collector's registry. The rate-limit gauges are
// refreshed from source on every scrape so idle endpoints still report.
func MetricsHandler(collector *metrics.Collector, source handlers.RateLimitSource) http.Handler {
	inner := promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if source != nil {
			collector.PublishSnapshot(source.Snapshot())
		}
		inner.ServeHTTP(w, r)
	})
}
