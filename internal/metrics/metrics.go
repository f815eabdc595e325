// Package metrics collects and exposes Prometheus metrics for Herald.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records operational metrics for the changelog feed and the
// preference store.
type Collector struct {
	fetchSuccess prometheus.Counter
	fetchFail    prometheus.Counter
	fetchLatency prometheus.Histogram
	prefWrites   prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics on the given
// registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		fetchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "herald_changelog_fetch_success_total",
			Help: "Total number of successful changelog fetches.",
		}),
		fetchFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "herald_changelog_fetch_fail_total",
			Help: "Total number of failed changelog fetches.",
		}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "herald_changelog_fetch_latency_seconds",
			Help:    "Latency of changelog fetches in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		prefWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "herald_preference_writes_total",
			Help: "Total number of preference blob writes.",
		}),
	}

	reg.MustRegister(
		c.fetchSuccess,
		c.fetchFail,
		c.fetchLatency,
		c.prefWrites,
	)

	return c
}

// RecordFetchSuccess records a successful changelog fetch and its latency.
func (c *Collector) RecordFetchSuccess(duration time.Duration) {
	c.fetchSuccess.Inc()
	c.fetchLatency.Observe(duration.Seconds())
}

// RecordFetchFailure records a failed changelog fetch.
func (c *Collector) RecordFetchFailure() {
	c.fetchFail.Inc()
}

// RecordPreferenceWrite records a preference blob write.
func (c *Collector) RecordPreferenceWrite() {
	c.prefWrites.Inc()
}

// Handler returns an HTTP handler serving the given gatherer in the
// Prometheus text exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
