// Package metrics provides Prometheus metrics for the remedies API:
// standard HTTP request metrics plus domain counters for searches,
// match-key cache effectiveness and history evictions. All metrics are
// registered with the default registry during package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	SearchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "remedy_searches_total",
			Help: "Total symptom search requests processed",
		},
	)

	SearchResultsHidden = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "remedy_search_results_hidden_total",
			Help: "Total matched remedies hidden by the allergen filter",
		},
	)

	MatchKeyCacheSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "match_key_cache_entries",
			Help: "Current number of memoized match keys",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen recently)",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchResultsHidden)
	prometheus.MustRegister(MatchKeyCacheSize)
	prometheus.MustRegister(RateLimiterBucketsTotal)
}
