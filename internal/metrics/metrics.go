// Package metrics exposes Prometheus collectors for the crawler.
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

// Page outcome labels for crawler_pages_total.
const (
	StatusStored     = "stored"
	StatusFetchError = "fetch_error"
	StatusStoreError = "store_error"
	StatusDuplicate  = "duplicate"
)

// OtherSite is the site label for hosts that were not registered with
// TrackSites. Crawls follow external links, so only seed hosts get their own
// series.
const OtherSite = "other"

var (
	crawlerPagesTotal           *prometheus.CounterVec
	crawlerBytesTotal           *prometheus.CounterVec
	crawlerLinksEnqueuedTotal   prometheus.Counter
	crawlerInFlight             prometheus.Gauge
	crawlerActiveWorkers        prometheus.Gauge
	crawlerFetchDurationSeconds prometheus.Histogram
	httpRequestsTotal           *prometheus.CounterVec
	httpRequestDurationSeconds  *prometheus.HistogramVec

	trackedSites sync.Map

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		crawlerPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_pages_total",
				Help: "Total number of crawl tasks finished, labeled by seed site (or \"other\") and outcome.",
			},
			[]string{"site", "status"},
		)

		crawlerBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_bytes_total",
				Help: "Total number of bytes persisted, labeled by seed site (or \"other\").",
			},
			[]string{"site"},
		)

		crawlerLinksEnqueuedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "crawler_links_enqueued_total",
				Help: "Total number of extracted links pushed onto the frontier.",
			},
		)

		crawlerInFlight = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "crawler_in_flight",
				Help: "Tasks enqueued but not yet finished.",
			},
		)

		crawlerActiveWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "crawler_active_workers",
				Help: "Number of workers currently processing a task.",
			},
		)

		crawlerFetchDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "crawler_fetch_duration_seconds",
				Help:    "Histogram of page fetch latencies.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
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

// TrackSites gives the hosts of rawURLs their own site label on the per-page
// counters.
func TrackSites(rawURLs []string) {
	for _, rawURL := range rawURLs {
		if site := SanitizeSite(rawURL); site != "unknown" {
			trackedSites.Store(site, struct{}{})
		}
	}
}

func siteLabel(rawURL string) string {
	site := SanitizeSite(rawURL)
	if _, ok := trackedSites.Load(site); ok {
		return site
	}
	return OtherSite
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePage records a finished task and, for stored pages, its size.
func ObservePage(rawURL string, status string, bytesStored int) {
	site := siteLabel(rawURL)
	crawlerPagesTotal.WithLabelValues(site, status).Inc()
	if bytesStored > 0 {
		crawlerBytesTotal.WithLabelValues(site).Add(float64(bytesStored))
	}
}

// ObserveFetch records the latency of one fetch attempt.
func ObserveFetch(duration time.Duration) {
	crawlerFetchDurationSeconds.Observe(duration.Seconds())
}

// AddLinksEnqueued increments the enqueued-link counter.
func AddLinksEnqueued(n int) {
	if n > 0 {
		crawlerLinksEnqueuedTotal.Add(float64(n))
	}
}

// SetInFlight publishes the current in-flight task count.
func SetInFlight(n int) {
	crawlerInFlight.Set(float64(n))
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	crawlerActiveWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	crawlerActiveWorkers.Dec()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
