package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type fakeFinder struct {
	bySlug   map[string]*ResolvedTenant
	byDomain map[string]*ResolvedTenant
	err      error
	calls    []string
}

func (f *fakeFinder) ApprovedBySlug(_ context.Context, slug string) (*ResolvedTenant, error) {
	f.calls = append(f.calls, "slug:"+slug)
	if f.err != nil {
		return nil, f.err
	}
	if t, ok := f.bySlug[slug]; ok {
		c := *t
		return &c, nil
	}
	return nil, nil
}

func (f *fakeFinder) ApprovedByDomain(_ context.Context, host string) (*ResolvedTenant, error) {
	f.calls = append(f.calls, "domain:"+host)
	if f.err != nil {
		return nil, f.err
	}
	if t, ok := f.byDomain[host]; ok {
		c := *t
		return &c, nil
	}
	return nil, nil
}

func newFinder() *fakeFinder {
	return &fakeFinder{
		bySlug: map[string]*ResolvedTenant{
			"acme":  {ID: 1, Slug: "acme"},
			"shiny": {ID: 2, Slug: "shiny"},
		},
		byDomain: map[string]*ResolvedTenant{
			"acmedetailing.com": {ID: 1, Slug: "acme", Domain: "acmedetailing.com"},
		},
	}
}

func TestTenantResolver_Order(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		host       string
		header     string
		wantSlug   string
		wantMethod string
	}{
		{"query wins", "/?tenant=shiny", "acme.thatsmartsite.com", "acme", "shiny", ResolvedByQuery},
		{"header", "/", "www.thatsmartsite.com", "shiny", "shiny", ResolvedByHeader},
		{"custom domain", "/", "acmedetailing.com:443", "", "acme", ResolvedByCustomDomain},
		{"subdomain", "/", "shiny.thatsmartsite.com", "", "shiny", ResolvedBySubdomain},
		{"staging subdomain", "/", "acme.staging.thatsmartsite.com", "", "acme", ResolvedBySubdomain},
		{"localhost subdomain", "/", "acme.localhost:3000", "", "acme", ResolvedBySubdomain},
		{"unknown explicit falls through", "/?tenant=nope", "shiny.thatsmartsite.com", "", "shiny", ResolvedBySubdomain},
		{"reserved subdomain", "/", "www.thatsmartsite.com", "", "", ""},
		{"apex", "/", "thatsmartsite.com", "", "", ""},
		{"unknown custom domain", "/", "example.org", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTenantResolver(newFinder(), "thatsmartsite.com", nil, nil)
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			req.Host = tt.host
			if tt.header != "" {
				req.Header.Set(TenantHeader, tt.header)
			}
			var got *ResolvedTenant
			tr.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = GetTenant(r.Context())
			})).ServeHTTP(httptest.NewRecorder(), req)

			if tt.wantSlug == "" {
				if got != nil {
					t.Errorf("tenant = %+v, want none", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("tenant = nil, want %s", tt.wantSlug)
			}
			if got.Slug != tt.wantSlug || got.Method != tt.wantMethod {
				t.Errorf("tenant = %s via %s, want %s via %s", got.Slug, got.Method, tt.wantSlug, tt.wantMethod)
			}
		})
	}
}

func TestTenantResolver_PlatformHostSkipsDomainLookup(t *testing.T) {
	f := newFinder()
	tr := NewTenantResolver(f, "thatsmartsite.com", nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "acme.thatsmartsite.com"
	tr.Resolve(req)
	if diff := cmp.Diff([]string{"slug:acme"}, f.calls); diff != "" {
		t.Errorf("lookups (-want +got):\n%s", diff)
	}
}

func TestTenantResolver_SkippedPaths(t *testing.T) {
	f := newFinder()
	tr := NewTenantResolver(f, "thatsmartsite.com", nil, nil)
	h := tr.Middleware("/api/health/live")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := GetTenant(r.Context()); got != nil {
			t.Errorf("tenant = %+v on a skipped path, want none", got)
		}
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/health/live", nil)
	req.Host = "10.0.0.5:8080"
	h.ServeHTTP(httptest.NewRecorder(), req)
	if len(f.calls) != 0 {
		t.Errorf("lookups = %v, want none", f.calls)
	}
}

func TestTenantResolver_LookupErrorIsNoMatch(t *testing.T) {
	tr := NewTenantResolver(&fakeFinder{err: errors.New("db down")}, "thatsmartsite.com", nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "acme.thatsmartsite.com"
	if got := tr.Resolve(req); got != nil {
		t.Errorf("tenant = %+v, want nil", got)
	}
}

func TestExtractSubdomain(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"acme.thatsmartsite.com", "acme"},
		{"ACME.ThatSmartSite.com:8080", "acme"},
		{"acme.staging.thatsmartsite.com", "acme"},
		{"staging.thatsmartsite.com", ""},
		{"api.thatsmartsite.com", ""},
		{"thatsmartsite.com", ""},
		{"localhost", ""},
		{"127.0.0.1", ""},
		{"acme.localhost", "acme"},
		{"admin.localhost", ""},
		{"acme.otherdomain.com", ""},
	}
	for _, tt := range tests {
		if got := ExtractSubdomain(tt.host, "thatsmartsite.com"); got != tt.want {
			t.Errorf("ExtractSubdomain(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
}
