package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_RecordHTTPRequest(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RecordHTTPRequest("GET", "/api/tenants/{slug}", 200, 20*time.Millisecond, 512)
	m.RecordHTTPRequest("GET", "/api/tenants/{slug}", 200, 30*time.Millisecond, 128)

	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/api/tenants/{slug}", "200")); got != 2 {
		t.Errorf("requests_total = %v, want 2", got)
	}
}

func TestMetrics_SitemapCache(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RecordSitemapCache(true)
	m.RecordSitemapCache(false)
	m.RecordSitemapCache(false)

	if got := testutil.ToFloat64(m.sitemapCache.WithLabelValues("hit")); got != 1 {
		t.Errorf("hit = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.sitemapCache.WithLabelValues("miss")); got != 2 {
		t.Errorf("miss = %v, want 2", got)
	}
}

func TestMetrics_InFlight(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.IncRequestsInFlight()
	m.IncRequestsInFlight()
	m.DecRequestsInFlight()
	if got := testutil.ToFloat64(m.requestsInFlight); got != 1 {
		t.Errorf("in_flight = %v, want 1", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.RecordHTTPRequest("GET", "/", 200, time.Millisecond, 1)
	m.RecordRateLimited("auth")
	m.RecordSitemapCache(true)
	m.ObserveSitemapBuild(time.Millisecond)
	m.RecordTenantResolution("subdomain")
	m.RecordAuthEvent("login")
	m.IncRequestsInFlight()
	m.DecRequestsInFlight()
}
