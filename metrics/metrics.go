// Package metrics provides Prometheus metrics collection for the doselog
// API. Besides the usual HTTP request metrics it tracks parse outcomes by
// error taxonomy tag and the size of the loaded reference catalogs.
//
// All metrics are automatically registered with the Prometheus default
// registry during package initialization.
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

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen recently)",
		},
	)

	// DoseParseTotal counts parse attempts; outcome is "ok" or the
	// ParseError taxonomy tag.
	DoseParseTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dose_parse_total",
			Help: "Dose string parse attempts by outcome",
		},
		[]string{"outcome"},
	)

	// CatalogEntries tracks the loaded reference catalog sizes.
	CatalogEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_entries",
			Help: "Loaded reference catalog entries",
		},
		[]string{"catalog"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(DoseParseTotal)
	prometheus.MustRegister(CatalogEntries)
}
