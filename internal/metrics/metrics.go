// Package metrics exposes Prometheus collectors for the catalog service.
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
	candidatesTotal            *prometheus.CounterVec
	verificationsTotal         *prometheus.CounterVec
	probesTotal                *prometheus.CounterVec
	recheckedStoresTotal       *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	pipelineActiveWorkers      prometheus.Gauge
	verificationCacheHitsTotal prometheus.Counter

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		candidatesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_candidates_total",
				Help: "Total candidates processed, labeled by source and outcome.",
			},
			[]string{"source", "outcome"},
		)

		verificationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_verifications_total",
				Help: "Total platform verifications, labeled by resulting status.",
			},
			[]string{"status"},
		)

		probesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_probes_total",
				Help: "Total health probes, labeled by resulting status.",
			},
			[]string{"status"},
		)

		recheckedStoresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_rechecked_stores_total",
				Help: "Total stores revisited by the maintenance pass, labeled by resulting store status.",
			},
			[]string{"status"},
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

		pipelineActiveWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "catalog_active_workers",
				Help: "Number of workers currently processing a candidate.",
			},
		)

		verificationCacheHitsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "catalog_verification_cache_hits_total",
				Help: "Verifications skipped because a cached verdict was still fresh.",
			},
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

// ObserveCandidate counts one processed candidate by source and outcome.
func ObserveCandidate(source, outcome string) {
	if source == "" {
		source = "unknown"
	}
	candidatesTotal.WithLabelValues(source, outcome).Inc()
}

// ObserveVerification counts one verification by resulting status.
func ObserveVerification(status string) {
	verificationsTotal.WithLabelValues(status).Inc()
}

// ObserveProbe counts one health probe by resulting status.
func ObserveProbe(status string) {
	probesTotal.WithLabelValues(status).Inc()
}

// ObserveRecheck counts one rechecked store by its resulting store status.
func ObserveRecheck(status string) {
	recheckedStoresTotal.WithLabelValues(status).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveVerificationCacheHit counts one skipped verification.
func ObserveVerificationCacheHit() {
	verificationCacheHitsTotal.Inc()
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	pipelineActiveWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	pipelineActiveWorkers.Dec()
}
