// Package metrics exposes Prometheus collectors for the roster crawler.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcomes.
const (
	FetchOK           = "ok"
	FetchHTTPError    = "http_error"
	FetchNetworkError = "network_error"
)

var (
	fetchesTotal           *prometheus.CounterVec
	fetchDurationSeconds   *prometheus.HistogramVec
	rowsTotal              *prometheus.CounterVec
	rejectionsTotal        *prometheus.CounterVec
	workUnitsTotal         *prometheus.CounterVec
	pacingDelaySeconds     prometheus.Histogram
	rateLimitWaitSeconds   *prometheus.HistogramVec
	httpRequestsTotal      *prometheus.CounterVec
	httpRequestDurationSec *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus collectors. It is safe to call multiple times.
func Init() {
	once.Do(func() {
		fetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roster_fetches_total",
				Help: "Total number of page fetches, labeled by crawl mode and outcome.",
			},
			[]string{"mode", "outcome"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "roster_fetch_duration_seconds",
				Help:    "Histogram of successful fetch latencies, labeled by crawl mode.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"mode"},
		)

		rowsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roster_rows_total",
				Help: "Reconciliation decisions, labeled by table and outcome.",
			},
			[]string{"table", "outcome"},
		)

		rejectionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roster_parse_rejections_total",
				Help: "Links or entries the parser declined, labeled by crawl mode and reason.",
			},
			[]string{"mode", "reason"},
		)

		workUnitsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roster_work_units_total",
				Help: "Work units processed, labeled by crawl mode and result.",
			},
			[]string{"mode", "result"},
		)

		pacingDelaySeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "roster_pacing_delay_seconds",
				Help:    "Histogram of delays enforced between fetches.",
				Buckets: []float64{0.5, 1, 1.5, 2, 3, 4, 5},
			},
		)

		rateLimitWaitSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "roster_rate_limit_wait_seconds",
				Help:    "Histogram of time spent waiting for a rate limit token, labeled by host.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"host"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests served, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSec = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch records a fetch attempt.
func ObserveFetch(mode, outcome string, duration time.Duration) {
	Init()
	fetchesTotal.WithLabelValues(mode, outcome).Inc()
	if outcome == FetchOK {
		fetchDurationSeconds.WithLabelValues(mode).Observe(duration.Seconds())
	}
}

// ObserveRow records a reconciliation decision for a table.
func ObserveRow(table, outcome string) {
	Init()
	rowsTotal.WithLabelValues(table, outcome).Inc()
}

// ObserveRejection records a parser rejection.
func ObserveRejection(mode, reason string) {
	Init()
	rejectionsTotal.WithLabelValues(mode, reason).Inc()
}

// ObserveWorkUnit records the result of one work unit.
func ObserveWorkUnit(mode, result string) {
	Init()
	workUnitsTotal.WithLabelValues(mode, result).Inc()
}

// ObservePacingDelay records an enforced delay.
func ObservePacingDelay(d time.Duration) {
	Init()
	pacingDelaySeconds.Observe(d.Seconds())
}

// ObserveRateLimitWait records time spent blocked on the per-host limiter.
func ObserveRateLimitWait(host string, d time.Duration) {
	Init()
	rateLimitWaitSeconds.WithLabelValues(host).Observe(d.Seconds())
}

// ObserveHTTPRequest records a served HTTP request.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSec.WithLabelValues(method, route).Observe(duration.Seconds())
}
