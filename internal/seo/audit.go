package seo

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxAuditBody bounds the robots and sitemap bodies read by Audit.
const maxAuditBody = 10 << 20

// ErrLiveHostBlocked reports a live host whose robots.txt disallows everything.
var ErrLiveHostBlocked = errors.New("live host blocks all crawlers")

// AuditReport is the outcome of checking one host's robots.txt and sitemap.xml.
type AuditReport struct {
	Host            string
	Preview         bool
	BlocksAll       bool
	SitemapDeclared bool
	URLCount        int
	ForeignURLs     []string
	SitemapErr      error
}

// Problem returns the first condition that should fail an audit, or nil.
func (r *AuditReport) Problem() error {
	if r.SitemapErr != nil {
		return r.SitemapErr
	}
	if r.BlocksAll && !r.Preview {
		return ErrLiveHostBlocked
	}
	return nil
}

// Auditor fetches robots.txt and sitemap.xml from a running site.
type Auditor struct {
	Client *http.Client
	// BaseURL overrides the scheme://host the requests are sent to; Host is still sent as the Host header.
	BaseURL string
}

// Audit checks host. https selects the scheme used to reach it.
func (a *Auditor) Audit(ctx context.Context, host string, https bool) (*AuditReport, error) {
	host = lookupHost(host)
	if host == "" {
		return nil, errors.New("seo: host is required")
	}
	base := a.BaseURL
	if base == "" {
		scheme := "http"
		if https {
			scheme = "https"
		}
		base = scheme + "://" + host
	}
	rep := &AuditReport{Host: host, Preview: IsPreview(host)}

	robots, err := a.fetch(ctx, base+"/robots.txt", host)
	if err != nil {
		return nil, err
	}
	rep.BlocksAll, rep.SitemapDeclared = scanRobots(robots)

	body, err := a.fetch(ctx, base+"/sitemap.xml", host)
	if err != nil {
		return nil, err
	}
	locs, err := CountURLs(body)
	if err != nil {
		rep.SitemapErr = err
		return rep, nil
	}
	rep.URLCount = len(locs)
	for _, loc := range locs {
		u, err := url.Parse(loc)
		if err != nil || lookupHost(u.Host) != host {
			rep.ForeignURLs = append(rep.ForeignURLs, loc)
		}
	}
	return rep, nil
}

func (a *Auditor) fetch(ctx context.Context, target, host string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Host = host
	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("seo: fetch %s: %w", target, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("seo: fetch %s: status %d", target, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxAuditBody))
}

// scanRobots reports whether the "*" group disallows "/" and whether a Sitemap line is present.
func scanRobots(body []byte) (blocksAll, sitemap bool) {
	inStar := false
	sc := bufio.NewScanner(strings.NewReader(string(body)))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "user-agent":
			inStar = value == "*"
		case "disallow":
			if inStar && value == "/" {
				blocksAll = true
			}
		case "sitemap":
			sitemap = value != ""
		}
	}
	return blocksAll, sitemap
}
