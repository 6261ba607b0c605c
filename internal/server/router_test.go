package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"thatsmartsite/backend/internal/health"
	healthhandler "thatsmartsite/backend/internal/health/handler"
	"thatsmartsite/backend/internal/industry"
	"thatsmartsite/backend/internal/metrics"
	"thatsmartsite/backend/internal/platform/respond"
	"thatsmartsite/backend/internal/security"
	"thatsmartsite/backend/internal/seo"
	"thatsmartsite/backend/internal/server/middleware"
)

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

func newTestRouter(t *testing.T) (http.Handler, *health.Checker) {
	t.Helper()
	reg := prometheus.NewRegistry()
	checker := health.NewChecker(okPinger{}, nil)
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	h := NewRouter(RouterConfig{
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		Auth:           middleware.NewAuth(tokens, nil),
		CORSOrigins:    []string{"*"},
		DisableTracing: true,
	}, Handlers{
		Health: healthhandler.NewHTTP(checker, nil),
		SEO:    seo.NewHandler(nil, seo.NewMemoryCache(10, nil), seo.Options{}),
	})
	return h, checker
}

func serve(h http.Handler, method, target, host string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if host != "" {
		req.Host = host
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_NotFoundAndMethod(t *testing.T) {
	h, _ := newTestRouter(t)
	tests := []struct {
		name     string
		method   string
		target   string
		wantCode int
		wantErr  respond.Code
	}{
		{"unknown route", http.MethodGet, "/api/nope", http.StatusNotFound, respond.CodeNotFound},
		{"wrong method", http.MethodPost, "/api/health/live", http.StatusMethodNotAllowed, respond.CodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, tt.method, tt.target, "")
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			var body respond.ErrorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if body.Success || body.Code != tt.wantErr {
				t.Errorf("body = %+v, want code %q", body, tt.wantErr)
			}
		})
	}
}

func TestRouter_HealthAndReadiness(t *testing.T) {
	h, checker := newTestRouter(t)
	if rec := serve(h, http.MethodGet, "/api/health/ready", ""); rec.Code != http.StatusOK {
		t.Fatalf("ready status = %d, want 200", rec.Code)
	}
	checker.MarkShuttingDown()
	if rec := serve(h, http.MethodGet, "/api/health/ready", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready after shutdown = %d, want 503", rec.Code)
	}
	rec := serve(h, http.MethodGet, "/api/health/live", "")
	if rec.Code != http.StatusOK {
		t.Errorf("live status = %d, want 200", rec.Code)
	}
	if rec.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestRouter_SEO(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := serve(h, http.MethodGet, "/robots.txt", "preview.example.com")
	if rec.Body.String() != "User-agent: *\nDisallow: /\n" {
		t.Errorf("preview robots = %q", rec.Body.String())
	}
	rec = serve(h, http.MethodGet, "/sitemap.xml", "acme.example.com")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<loc>http://acme.example.com/services</loc>") {
		t.Errorf("sitemap = %d %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get(seo.CacheHeader); got != seo.CacheMiss {
		t.Errorf("%s = %q, want MISS", seo.CacheHeader, got)
	}
}

func TestRouter_MetricsExposed(t *testing.T) {
	h, _ := newTestRouter(t)
	serve(h, http.MethodGet, "/api/health/live", "")
	rec := serve(h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `thatsmartsite_http_requests_total{method="GET",route="/api/health/live",status="200"} 1`) {
		t.Errorf("request counter missing from:\n%s", rec.Body)
	}
}

func TestRouter_ProtectedRouteWithoutHandlerIsNotMounted(t *testing.T) {
	h, _ := newTestRouter(t)
	if rec := serve(h, http.MethodGet, "/api/auth/me", ""); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when identity routes are not mounted", rec.Code)
	}
}

type countingFinder struct {
	mu    sync.Mutex
	calls []string
}

func (f *countingFinder) ApprovedBySlug(_ context.Context, slug string) (*middleware.ResolvedTenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "slug:"+slug)
	return nil, nil
}

func (f *countingFinder) ApprovedByDomain(_ context.Context, host string) (*middleware.ResolvedTenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "domain:"+host)
	return nil, nil
}

func (f *countingFinder) reset() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.calls
	f.calls = nil
	return out
}

func TestRouter_HealthAndSEOSkipTenantResolution(t *testing.T) {
	reg := prometheus.NewRegistry()
	registry, err := industry.Load()
	if err != nil {
		t.Fatalf("industry.Load: %v", err)
	}
	finder := &countingFinder{}
	h := NewRouter(RouterConfig{
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		Tenants:        middleware.NewTenantResolver(finder, "thatsmartsite.com", nil, nil),
		DisableTracing: true,
	}, Handlers{
		Health:     healthhandler.NewHTTP(health.NewChecker(okPinger{}, nil), nil),
		SEO:        seo.NewHandler(nil, seo.NewMemoryCache(10, nil), seo.Options{}),
		Industries: industry.NewHandler(registry),
	})

	// Kubelet health checks arrive on the pod IP, which is not a platform host.
	const podHost = "10.0.0.5:8080"
	for _, path := range []string{"/api/health/live", "/api/health/ready", "/api/health", "/metrics", "/robots.txt", "/sitemap.xml"} {
		rec := serve(h, http.MethodGet, path, podHost)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
		if calls := finder.reset(); len(calls) != 0 {
			t.Errorf("GET %s looked up tenants: %v", path, calls)
		}
	}

	serve(h, http.MethodGet, "/api/industries", podHost)
	if calls := finder.reset(); len(calls) == 0 {
		t.Error("GET /api/industries did not resolve the tenant")
	}
}
