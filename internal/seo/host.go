// Package seo serves the per-host robots.txt and sitemap.xml.
//
// A preview host (any host containing "preview" or "localhost") is kept out of
// search indexes: its robots.txt disallows everything and its sitemap is empty.
// Live hosts get a sitemap of the static pages plus one location page per
// service area of the tenant matched to the host.
package seo

import (
	"net"
	"net/http"
	"strings"
)

// IsPreview reports whether host is a staging or local host.
func IsPreview(host string) bool {
	h := strings.ToLower(host)
	return strings.Contains(h, "preview") || strings.Contains(h, "localhost")
}

// Protocol returns the scheme the client used: X-Forwarded-Proto when a proxy
// set it, else https for TLS connections and http otherwise.
func Protocol(r *http.Request) string {
	if p := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")); p != "" {
		// A chain of proxies may append; the first value is the client's.
		if i := strings.IndexByte(p, ','); i >= 0 {
			p = strings.TrimSpace(p[:i])
		}
		return strings.ToLower(p)
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

// Origin is proto://host for r.
func Origin(r *http.Request) string {
	return Protocol(r) + "://" + r.Host
}

// lookupHost strips the port and lower-cases host for the tenant lookup.
func lookupHost(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(strings.TrimSuffix(host, "."))
}

// firstLabel is the left-most DNS label of host.
func firstLabel(host string) string {
	if i := strings.IndexByte(host, '.'); i >= 0 {
		return host[:i]
	}
	return host
}
