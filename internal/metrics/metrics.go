// Package metrics provides Prometheus metrics for the site backend.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "thatsmartsite"

// Metrics holds all Prometheus collectors used by the backend.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
	responseSize     *prometheus.HistogramVec
	rateLimited      *prometheus.CounterVec
	sitemapCache     *prometheus.CounterVec
	sitemapBuild     prometheus.Histogram
	tenantResolution *prometheus.CounterVec
	authEvents       *prometheus.CounterVec
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer in main
// and prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		requestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being processed",
			},
		),
		responseSize: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response size in bytes",
				Buckets:   []float64{100, 500, 1000, 5000, 10000, 50000, 100000},
			},
			[]string{"method", "route"},
		),
		rateLimited: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_total",
				Help:      "Requests rejected by a rate limiter",
			},
			[]string{"limiter"},
		),
		sitemapCache: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sitemap_cache_total",
				Help:      "Sitemap cache lookups by result (hit, miss)",
			},
			[]string{"result"},
		),
		sitemapBuild: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sitemap_build_duration_seconds",
				Help:      "Time spent building a sitemap on cache miss",
				Buckets:   prometheus.DefBuckets,
			},
		),
		tenantResolution: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tenant_resolution_total",
				Help:      "Tenant resolution outcomes by method",
			},
			[]string{"method"},
		),
		authEvents: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_events_total",
				Help:      "Authentication events by type",
			},
			[]string{"event"},
		),
	}
}

// RecordHTTPRequest records metrics for an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration, size int) {
	if m == nil {
		return
	}
	status := strconv.Itoa(statusCode)
	m.requestsTotal.WithLabelValues(method, route, status).Inc()
	m.requestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
	m.responseSize.WithLabelValues(method, route).Observe(float64(size))
}

// IncRequestsInFlight increments the in-flight requests gauge.
func (m *Metrics) IncRequestsInFlight() {
	if m != nil {
		m.requestsInFlight.Inc()
	}
}

// DecRequestsInFlight decrements the in-flight requests gauge.
func (m *Metrics) DecRequestsInFlight() {
	if m != nil {
		m.requestsInFlight.Dec()
	}
}

// RecordRateLimited counts a rejected request for the named limiter.
func (m *Metrics) RecordRateLimited(limiter string) {
	if m != nil {
		m.rateLimited.WithLabelValues(limiter).Inc()
	}
}

// RecordSitemapCache counts a sitemap cache hit or miss.
func (m *Metrics) RecordSitemapCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.sitemapCache.WithLabelValues(result).Inc()
}

// ObserveSitemapBuild records how long a sitemap build took.
func (m *Metrics) ObserveSitemapBuild(d time.Duration) {
	if m != nil {
		m.sitemapBuild.Observe(d.Seconds())
	}
}

// RecordTenantResolution counts how a request's tenant was resolved ("none" when unresolved).
func (m *Metrics) RecordTenantResolution(method string) {
	if m != nil {
		m.tenantResolution.WithLabelValues(method).Inc()
	}
}

// RecordAuthEvent counts an auth event (login, login_failed, refresh, refresh_reuse, logout).
func (m *Metrics) RecordAuthEvent(event string) {
	if m != nil {
		m.authEvents.WithLabelValues(event).Inc()
	}
}
