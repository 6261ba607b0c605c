package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"thatsmartsite/backend/internal/audit"
	dashboardhandler "thatsmartsite/backend/internal/dashboard/handler"
	healthhandler "thatsmartsite/backend/internal/health/handler"
	identityhandler "thatsmartsite/backend/internal/identity/handler"
	"thatsmartsite/backend/internal/industry"
	"thatsmartsite/backend/internal/metrics"
	"thatsmartsite/backend/internal/platform/respond"
	reviewhandler "thatsmartsite/backend/internal/review/handler"
	"thatsmartsite/backend/internal/seo"
	"thatsmartsite/backend/internal/server/middleware"
	serviceareahandler "thatsmartsite/backend/internal/servicearea/handler"
	"thatsmartsite/backend/internal/telemetry"
	tenanthandler "thatsmartsite/backend/internal/tenant/handler"
	contenthandler "thatsmartsite/backend/internal/websitecontent/handler"
)

// Paths kept out of compression, telemetry and tracing.
const (
	metricsPath = "/metrics"
	livePath    = "/api/health/live"
	readyPath   = "/api/health/ready"
)

// Paths served without tenant resolution. The SEO routes look the tenant up themselves.
var untenantedPaths = []string{
	metricsPath, livePath, readyPath, "/api/health", "/robots.txt", "/sitemap.xml",
}

// Handlers are the REST handlers mounted by NewRouter. A nil handler leaves its routes unmounted.
type Handlers struct {
	Health       *healthhandler.HTTP
	SEO          *seo.Handler
	Identity     *identityhandler.Handler
	Tenants      *tenanthandler.Handler
	Reviews      *reviewhandler.Handler
	ServiceAreas *serviceareahandler.Handler
	Content      *contenthandler.Handler
	Dashboard    *dashboardhandler.Handler
	Industries   *industry.Handler
}

// RouterConfig carries the cross-cutting pieces of the HTTP stack.
type RouterConfig struct {
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	Auth           *middleware.Auth
	Tenants        *middleware.TenantResolver
	AuthLimit      *middleware.RateLimiter
	SensitiveLimit *middleware.RateLimiter
	AuditLogger    audit.AuditLogger
	Events         *telemetry.Async
	CORSOrigins    []string
	UploadDir      string
	RequestTimeout time.Duration
	DisableTracing bool
	ServiceName    string
}

// auditedElsewhere are routes whose service writes its own audit entries.
var auditedElsewhere = []string{
	"/api/auth/login",
	"/api/auth/logout",
	"/api/auth/logout-all",
	"/api/auth/register",
	"/api/auth/refresh",
	"/api/tenants/signup",
}

// NewRouter builds the REST handler: mux routes wrapped in the global middleware chain.
func NewRouter(cfg RouterConfig, h Handlers) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	auth := cfg.Auth

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respond.NotFound(w, "Route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, respond.CodeInvalidRequest, "Method not allowed")
	})

	// Route-aware middleware: needs mux.CurrentRoute for the template.
	r.Use(middleware.Metrics(cfg.Metrics))
	if cfg.Tenants != nil {
		r.Use(cfg.Tenants.Middleware(untenantedPaths...))
	}
	if auth != nil {
		r.Use(auth.Optional)
	}
	r.Use(middleware.Telemetry(cfg.Events, metricsPath, livePath, readyPath))
	r.Use(middleware.Audit(cfg.AuditLogger, auditedElsewhere...))

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle(metricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	require := func(fn http.HandlerFunc) http.Handler {
		if auth == nil {
			return fn
		}
		return auth.Require(fn)
	}
	limit := func(rl *middleware.RateLimiter, next http.Handler) http.Handler {
		if rl == nil {
			return next
		}
		return rl.Limit(next)
	}

	if h.Health != nil {
		r.HandleFunc("/api/health", h.Health.Health).Methods(http.MethodGet)
		r.HandleFunc(livePath, h.Health.Live).Methods(http.MethodGet)
		r.HandleFunc(readyPath, h.Health.Ready).Methods(http.MethodGet)
	}

	if h.SEO != nil {
		r.HandleFunc("/robots.txt", h.SEO.Robots).Methods(http.MethodGet, http.MethodHead)
		r.HandleFunc("/sitemap.xml", h.SEO.Sitemap).Methods(http.MethodGet, http.MethodHead)
	}

	if h.Identity != nil {
		a := r.PathPrefix("/api/auth").Subrouter()
		a.Use(func(next http.Handler) http.Handler { return limit(cfg.AuthLimit, next) })
		a.Handle("/register", limit(cfg.SensitiveLimit, http.HandlerFunc(h.Identity.Register))).Methods(http.MethodPost)
		a.HandleFunc("/login", h.Identity.Login).Methods(http.MethodPost)
		a.HandleFunc("/refresh", h.Identity.Refresh).Methods(http.MethodPost)
		a.HandleFunc("/logout", h.Identity.Logout).Methods(http.MethodPost)
		a.HandleFunc("/check-email", h.Identity.CheckEmail).Methods(http.MethodPost, http.MethodGet)
		a.Handle("/logout-all", require(h.Identity.LogoutAll)).Methods(http.MethodPost)
		a.Handle("/me", require(h.Identity.Me)).Methods(http.MethodGet)
		a.Handle("/sessions", require(h.Identity.Sessions)).Methods(http.MethodGet)
		a.Handle("/sessions/{deviceId}", require(h.Identity.RevokeDevice)).Methods(http.MethodDelete)
	}

	if h.Tenants != nil {
		r.Handle("/api/tenants/signup", limit(cfg.SensitiveLimit, http.HandlerFunc(h.Tenants.Signup))).Methods(http.MethodPost)
		r.HandleFunc("/api/tenants/industries/list", h.Tenants.Industries).Methods(http.MethodGet)
		r.HandleFunc("/api/tenants", h.Tenants.List).Methods(http.MethodGet)
	}
	if h.Dashboard != nil {
		r.Handle("/api/tenants/{slug}/dashboard", require(h.Dashboard.Dashboard)).Methods(http.MethodGet)
		r.Handle("/api/tenants/{slug}/dashboard/overview", require(h.Dashboard.Overview)).Methods(http.MethodGet)
		r.Handle("/api/tenants/{slug}/dashboard/reviews", require(h.Dashboard.Reviews)).Methods(http.MethodGet)
	}
	if h.Tenants != nil {
		r.HandleFunc("/api/tenants/{slug}", h.Tenants.Get).Methods(http.MethodGet)
	}

	if h.Industries != nil {
		r.HandleFunc("/api/industries", h.Industries.List).Methods(http.MethodGet)
		r.HandleFunc("/api/industries/{industry}/defaults", h.Industries.Defaults).Methods(http.MethodGet)
	}

	if h.Reviews != nil {
		r.HandleFunc("/api/tenant-reviews", h.Reviews.Create).Methods(http.MethodPost)
		r.HandleFunc("/api/tenant-reviews/upload-avatar", h.Reviews.UploadAvatar).Methods(http.MethodPost)
		r.HandleFunc("/api/tenant-reviews/check-gbp-url/{slug}", h.Reviews.CheckGBP).Methods(http.MethodGet)
		r.Handle("/api/tenant-reviews/{id:[0-9]+}", require(h.Reviews.Delete)).Methods(http.MethodDelete)
		r.HandleFunc("/api/tenant-reviews/{slug}", h.Reviews.List).Methods(http.MethodGet)
		r.HandleFunc("/api/reviews/{id}/vote", h.Reviews.Vote).Methods(http.MethodPost)
		r.HandleFunc("/api/reviews/{id:[0-9]+}", h.Reviews.Get).Methods(http.MethodGet)
		r.Handle("/api/reviews/{id}", require(h.Reviews.Update)).Methods(http.MethodPut)
		r.Handle("/api/reviews/{id}", require(h.Reviews.Delete)).Methods(http.MethodDelete)
	}

	if h.ServiceAreas != nil {
		r.HandleFunc("/api/affiliates/lookup", h.ServiceAreas.Lookup).Methods(http.MethodGet)
		r.HandleFunc("/api/affiliates/{slug}/service_areas", h.ServiceAreas.List).Methods(http.MethodGet)
		r.Handle("/api/affiliates/{slug}/service_areas", require(h.ServiceAreas.Add)).Methods(http.MethodPost)
		r.Handle("/api/affiliates/{slug}/service_areas/primary", require(h.ServiceAreas.SetPrimary)).Methods(http.MethodPut)
		r.Handle("/api/affiliates/{slug}/service_areas/{city}/{state}", require(h.ServiceAreas.Remove)).Methods(http.MethodDelete)
		r.HandleFunc("/api/affiliates/{slug}/locations", h.ServiceAreas.Locations).Methods(http.MethodGet)
	}

	if h.Tenants != nil {
		// After the service area routes so "lookup" is not taken as a slug.
		r.HandleFunc("/api/affiliates/slugs", h.Tenants.Slugs).Methods(http.MethodGet)
		r.HandleFunc("/api/affiliates/{slug}", h.Tenants.Affiliate).Methods(http.MethodGet)
	}

	if h.Content != nil {
		r.HandleFunc("/api/website-content/{slug}", h.Content.Get).Methods(http.MethodGet)
		r.Handle("/api/website-content/{slug}", require(h.Content.Save)).Methods(http.MethodPut)
	}

	if cfg.UploadDir != "" {
		r.PathPrefix("/uploads/avatars/").Handler(
			http.StripPrefix("/uploads/avatars/", http.FileServer(http.Dir(cfg.UploadDir)))).Methods(http.MethodGet, http.MethodHead)
	}

	var handler http.Handler = r
	if !cfg.DisableTracing {
		name := cfg.ServiceName
		if name == "" {
			name = "http.server"
		}
		handler = otelhttp.NewHandler(handler, name,
			otelhttp.WithFilter(func(req *http.Request) bool {
				return req.URL.Path != metricsPath && req.URL.Path != livePath && req.URL.Path != readyPath
			}))
	}

	return middleware.Chain(
		middleware.RequestID,
		middleware.Recovery(log),
		middleware.Logging(log),
		middleware.CORS(cfg.CORSOrigins),
		middleware.ClientIP,
		middleware.Timeout(cfg.RequestTimeout),
		middleware.Compress(metricsPath),
	)(handler)
}
