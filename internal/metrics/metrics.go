// Package metrics exposes Prometheus collectors for the filmbro service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	lookupsTotal               *prometheus.CounterVec
	cacheRequestsTotal         *prometheus.CounterVec
	cacheEntries               *prometheus.GaugeVec
	upstreamRequestsTotal      *prometheus.CounterVec
	upstreamDurationSeconds    *prometheus.HistogramVec
	rouletteProbesTotal        *prometheus.CounterVec
	poolActiveWorkers          prometheus.Gauge
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times; the Observe helpers call
// it themselves.
func Init() {
	once.Do(func() {
		lookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filmbro_lookups_total",
				Help: "Total number of entity lookups, labeled by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		)

		cacheRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filmbro_cache_requests_total",
				Help: "Result cache lookups, labeled by kind and hit/miss.",
			},
			[]string{"kind", "result"},
		)

		cacheEntries = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "filmbro_cache_entries",
				Help: "Number of entries held per result cache.",
			},
			[]string{"kind"},
		)

		upstreamRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filmbro_upstream_requests_total",
				Help: "Outbound requests, labeled by site and status code (0 on transport error).",
			},
			[]string{"site", "code"},
		)

		upstreamDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "filmbro_upstream_request_duration_seconds",
				Help:    "Histogram of outbound request latencies, labeled by site.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"site"},
		)

		rouletteProbesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filmbro_roulette_probes_total",
				Help: "Short-link probes issued by roulette, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		poolActiveWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "filmbro_pool_active_workers",
				Help: "Number of pool workers currently running a fetch.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveLookup counts a service lookup for kind with the given outcome
// (found, not_found, empty, error).
func ObserveLookup(kind, outcome string) {
	Init()
	lookupsTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveCache records a cache hit or miss for kind.
func ObserveCache(kind string, hit bool) {
	Init()
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheRequestsTotal.WithLabelValues(kind, result).Inc()
}

// SetCacheEntries reports the current size of the cache for kind.
func SetCacheEntries(kind string, n int) {
	Init()
	cacheEntries.WithLabelValues(kind).Set(float64(n))
}

// ObserveUpstream records an outbound request. A zero code marks a transport
// failure.
func ObserveUpstream(rawURL string, code int, duration time.Duration) {
	Init()
	site := SanitizeSite(rawURL)
	upstreamRequestsTotal.WithLabelValues(site, strconv.Itoa(code)).Inc()
	upstreamDurationSeconds.WithLabelValues(site).Observe(duration.Seconds())
}

// ObserveRouletteProbe counts a roulette probe (accepted, rejected, error).
func ObserveRouletteProbe(outcome string) {
	Init()
	rouletteProbesTotal.WithLabelValues(outcome).Inc()
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	Init()
	poolActiveWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	Init()
	poolActiveWorkers.Dec()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
