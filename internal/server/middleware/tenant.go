package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"thatsmartsite/backend/internal/metrics"
)

// Resolution methods, in the order they are tried.
const (
	ResolvedByQuery        = "query_param"
	ResolvedByHeader       = "header"
	ResolvedByCustomDomain = "custom_domain"
	ResolvedBySubdomain    = "subdomain"
)

// TenantHeader names the tenant explicitly.
const TenantHeader = "X-Tenant-Slug"

var reservedSubdomains = map[string]bool{
	"www": true, "api": true, "admin": true, "main": true, "main-site": true,
	"tenant": true, "staging": true, "dev": true, "cdn": true, "assets": true,
	"static": true, "img": true, "images": true, "media": true, "mail": true,
	"email": true, "ftp": true, "blog": true, "support": true, "help": true,
	"docs": true, "status": true, "monitoring": true, "metrics": true, "logs": true,
}

// ResolvedTenant is the approved tenant serving the request.
type ResolvedTenant struct {
	ID     int64
	Slug   string
	Name   string
	Domain string
	Method string
}

// TenantFinder looks up approved tenants. Both methods return (nil, nil) when none matches.
type TenantFinder interface {
	ApprovedBySlug(ctx context.Context, slug string) (*ResolvedTenant, error)
	ApprovedByDomain(ctx context.Context, host string) (*ResolvedTenant, error)
}

// TenantResolver puts the request's tenant into the context. It never rejects a request:
// routes that need a tenant check GetTenant themselves.
type TenantResolver struct {
	finder     TenantFinder
	baseDomain string
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewTenantResolver returns a resolver for tenants served under baseDomain.
func NewTenantResolver(finder TenantFinder, baseDomain string, logger *zap.Logger, m *metrics.Metrics) *TenantResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TenantResolver{finder: finder, baseDomain: strings.ToLower(baseDomain), logger: logger, metrics: m}
}

// Middleware resolves the tenant and stores it with WithTenant. Paths in skip pass through
// without a lookup.
func (tr *TenantResolver) Middleware(skip ...string) func(http.Handler) http.Handler {
	skipped := make(map[string]bool, len(skip))
	for _, p := range skip {
		skipped[p] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipped[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			t := tr.Resolve(r)
			method := "none"
			if t != nil {
				method = t.Method
				r = r.WithContext(WithTenant(r.Context(), t))
			}
			tr.metrics.RecordTenantResolution(method)
			next.ServeHTTP(w, r)
		})
	}
}

// Resolve tries the explicit query/header slug, then the custom domain, then the subdomain.
// Lookup errors are logged and treated as no match.
func (tr *TenantResolver) Resolve(r *http.Request) *ResolvedTenant {
	ctx := r.Context()
	if slug := r.URL.Query().Get("tenant"); slug != "" {
		if t := tr.bySlug(ctx, slug, ResolvedByQuery); t != nil {
			return t
		}
	} else if slug := r.Header.Get(TenantHeader); slug != "" {
		if t := tr.bySlug(ctx, slug, ResolvedByHeader); t != nil {
			return t
		}
	}

	host := hostname(r.Host)
	if host == "" {
		return nil
	}
	if !isPlatformHost(host, tr.baseDomain) {
		t, err := tr.finder.ApprovedByDomain(ctx, host)
		if err != nil {
			tr.logger.Warn("tenant: custom domain lookup failed", zap.String("host", host), zap.Error(err))
		} else if t != nil {
			t.Method = ResolvedByCustomDomain
			return t
		}
	}

	if sub := ExtractSubdomain(host, tr.baseDomain); sub != "" {
		return tr.bySlug(ctx, sub, ResolvedBySubdomain)
	}
	return nil
}

func (tr *TenantResolver) bySlug(ctx context.Context, slug, method string) *ResolvedTenant {
	t, err := tr.finder.ApprovedBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		tr.logger.Warn("tenant: slug lookup failed", zap.String("slug", slug), zap.Error(err))
		return nil
	}
	if t == nil {
		return nil
	}
	t.Method = method
	return t
}

// ExtractSubdomain returns the tenant label of host under baseDomain, staging.baseDomain or
// localhost, or "" for apex, reserved and foreign hosts.
func ExtractSubdomain(host, baseDomain string) string {
	host = hostname(host)
	if host == "localhost" || host == "127.0.0.1" {
		return ""
	}
	parts := strings.Split(host, ".")
	var sub string
	switch {
	case len(parts) >= 2 && parts[1] == "localhost":
		sub = parts[0]
	case baseDomain != "" && len(parts) >= 3 && strings.HasSuffix(host, ".staging."+baseDomain):
		sub = parts[0]
	case baseDomain != "" && strings.HasSuffix(host, "."+baseDomain):
		sub = parts[0]
	}
	if sub == "" || reservedSubdomains[sub] {
		return ""
	}
	return sub
}

func isPlatformHost(host, baseDomain string) bool {
	if host == "localhost" || host == "127.0.0.1" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	return baseDomain != "" && (host == baseDomain || strings.HasSuffix(host, "."+baseDomain))
}

// hostname lower-cases host and strips any port.
func hostname(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
