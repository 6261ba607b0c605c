package seo

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"thatsmartsite/backend/internal/metrics"
	"thatsmartsite/backend/internal/telemetry"
	teledomain "thatsmartsite/backend/internal/telemetry/domain"
)

// Cache header values.
const (
	CacheHeader = "X-Sitemap-Cache"
	CacheHit    = "HIT"
	CacheMiss   = "MISS"
)

const (
	robotsContentType  = "text/plain; charset=utf-8"
	sitemapContentType = "application/xml; charset=utf-8"
	robotsCacheControl = "public, max-age=86400"
	sitemapCacheCtl    = "public, max-age=3600"
)

// Options configures a Handler. Zero TTLs fall back to 24h (live) and 1h (preview).
type Options struct {
	LiveTTL    time.Duration
	PreviewTTL time.Duration
	Now        func() time.Time
	Metrics    *metrics.Metrics
	Events     *telemetry.Async
	Logger     *zap.Logger
}

// Handler serves GET /robots.txt and GET /sitemap.xml.
type Handler struct {
	tenants    TenantSource
	cache      Cache
	liveTTL    time.Duration
	previewTTL time.Duration
	now        func() time.Time
	metrics    *metrics.Metrics
	events     *telemetry.Async
	log        *zap.Logger
	render     func([]URL) (string, error)
}

// NewHandler returns a Handler. tenants may be nil, in which case live sitemaps list only the
// static pages; cache may be nil to disable caching.
func NewHandler(tenants TenantSource, cache Cache, opts Options) *Handler {
	h := &Handler{
		tenants:    tenants,
		cache:      cache,
		liveTTL:    opts.LiveTTL,
		previewTTL: opts.PreviewTTL,
		now:        opts.Now,
		metrics:    opts.Metrics,
		events:     opts.Events,
		log:        opts.Logger,
		render:     RenderSitemap,
	}
	if h.liveTTL <= 0 {
		h.liveTTL = 24 * time.Hour
	}
	if h.previewTTL <= 0 {
		h.previewTTL = time.Hour
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.log == nil {
		h.log = zap.NewNop()
	}
	return h
}

// Robots handles GET /robots.txt.
func (h *Handler) Robots(w http.ResponseWriter, r *http.Request) {
	if r.Host == "" {
		// Without a host there is no sitemap URL to advertise.
		h.log.Warn("robots.txt requested without host")
		w.Header().Set("Content-Type", robotsContentType)
		_, _ = w.Write([]byte(BlockAllRobots()))
		return
	}
	preview := IsPreview(r.Host)
	w.Header().Set("Content-Type", robotsContentType)
	w.Header().Set("Cache-Control", robotsCacheControl)
	_, _ = w.Write([]byte(RobotsTxt(r.Host, Origin(r))))
	h.log.Debug("robots.txt served", zap.String("host", r.Host), zap.Bool("preview", preview))
}

// Sitemap handles GET /sitemap.xml.
func (h *Handler) Sitemap(w http.ResponseWriter, r *http.Request) {
	host := r.Host
	ctx := r.Context()

	if h.cache != nil {
		if xml, ok := h.cache.Get(ctx, host); ok {
			h.metrics.RecordSitemapCache(true)
			writeSitemap(w, xml, CacheHit)
			return
		}
	}
	h.metrics.RecordSitemapCache(false)

	start := h.now()
	xml, ttl, err := h.build(ctx, host, Origin(r))
	if err != nil {
		h.log.Error("sitemap build failed", zap.String("host", host), zap.Error(err))
		w.Header().Set("Content-Type", sitemapContentType)
		_, _ = w.Write([]byte(EmptySitemap))
		return
	}
	h.metrics.ObserveSitemapBuild(h.now().Sub(start))
	if h.cache != nil && ttl > 0 {
		h.cache.Set(ctx, host, xml, ttl)
	}
	writeSitemap(w, xml, CacheMiss)
}

func writeSitemap(w http.ResponseWriter, xml, cacheResult string) {
	w.Header().Set("Content-Type", sitemapContentType)
	w.Header().Set("Cache-Control", sitemapCacheCtl)
	w.Header().Set(CacheHeader, cacheResult)
	_, _ = w.Write([]byte(xml))
}

// build renders the sitemap for host and returns how long it may be cached. A tenant
// lookup failure still yields the static pages but with ttl 0 so the next request retries.
func (h *Handler) build(ctx context.Context, host, origin string) (string, time.Duration, error) {
	if host == "" || IsPreview(host) {
		h.emit(host, nil, 0, true)
		return EmptySitemap, h.previewTTL, nil
	}

	ttl := h.liveTTL
	var tenant *Tenant
	if h.tenants != nil {
		t, err := h.tenants.TenantForHost(ctx, host)
		if err != nil {
			h.log.Warn("sitemap tenant lookup failed", zap.String("host", host), zap.Error(err))
			ttl = 0
		} else {
			tenant = t
		}
	}

	var locations []Location
	if tenant != nil {
		locations = tenant.Locations
	}
	urls := SitemapURLs(origin, locations, h.now())
	xml, err := h.render(urls)
	if err != nil {
		return "", 0, err
	}
	h.log.Info("sitemap built",
		zap.String("host", host),
		zap.Int("url_count", len(urls)),
		zap.Bool("has_tenant", tenant != nil),
	)
	h.emit(host, tenant, len(urls), false)
	return xml, ttl, nil
}

func (h *Handler) emit(host string, t *Tenant, urlCount int, preview bool) {
	if h.events == nil {
		return
	}
	meta, _ := json.Marshal(map[string]interface{}{
		"host":     host,
		"urlCount": urlCount,
		"preview":  preview,
	})
	ev := &teledomain.Event{
		EventType: teledomain.EventSitemapBuild,
		Source:    "seo",
		Path:      "/sitemap.xml",
		Metadata:  meta,
	}
	if t != nil {
		ev.TenantID = strconv.FormatInt(t.ID, 10)
	}
	h.events.EmitAsync(ev)
}
