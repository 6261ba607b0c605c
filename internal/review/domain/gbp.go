package domain

import (
	"net/url"
	"strings"
)

// Google Business Profile URL kinds.
const (
	GBPPlaceID   = "place_id"
	GBPCID       = "cid"
	GBPMapsShort = "maps_short"
	GBPSearch    = "search"
	GBPUnknown   = "unknown"
)

// GBPStatus reports the stored Google Business Profile URL of a tenant.
type GBPStatus struct {
	TenantSlug   string `json:"tenantSlug"`
	BusinessName string `json:"businessName"`
	HasGBPURL    bool   `json:"hasGbpUrl"`
	GBPURL       string `json:"gbpUrl,omitempty"`
	URLType      string `json:"urlType,omitempty"`
}

// ClassifyGBPURL names the kind of a Google Business Profile link.
func ClassifyGBPURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return GBPUnknown
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	q := u.Query()
	switch {
	case q.Get("place_id") != "" || q.Get("placeid") != "" || q.Get("query_place_id") != "" ||
		strings.Contains(u.Path, "place_id:") || strings.Contains(q.Get("q"), "place_id:"):
		return GBPPlaceID
	case q.Get("cid") != "" || q.Get("ludocid") != "":
		return GBPCID
	case host == "maps.app.goo.gl" || host == "g.page" || host == "share.google" ||
		(host == "goo.gl" && strings.HasPrefix(u.Path, "/maps")):
		return GBPMapsShort
	case strings.HasPrefix(host, "google.") && strings.HasPrefix(u.Path, "/search"):
		return GBPSearch
	}
	return GBPUnknown
}
