package seo

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/beevik/etree"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// EmptySitemap is served to preview hosts and when a sitemap cannot be built.
const EmptySitemap = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
</urlset>`

// URL is one <url> entry.
type URL struct {
	Loc        string
	LastMod    string
	ChangeFreq string
	Priority   string
}

// Location is a service area with enough data for a location page.
type Location struct {
	City  string `json:"city"`
	State string `json:"state"`
}

type staticPage struct {
	path, changeFreq, priority string
}

var staticPages = []staticPage{
	{"", "weekly", "1.0"},
	{"/services", "monthly", "0.8"},
	{"/reviews", "weekly", "0.7"},
	{"/faq", "monthly", "0.6"},
	{"/contact", "monthly", "0.5"},
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func pathSlug(s string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
}

// LocationPath is the page path for l: "/{city}-{state}" with both parts lower-cased
// and whitespace runs replaced by "-". ok is false when city or state is blank.
func LocationPath(l Location) (path string, ok bool) {
	city, state := pathSlug(l.City), pathSlug(l.State)
	if city == "" || state == "" {
		return "", false
	}
	return "/" + city + "-" + state, true
}

// ParseLocations decodes the service_areas JSON column. It never fails: a value
// that is not a JSON array yields nil and elements that are not objects with
// string city and state fields are skipped.
func ParseLocations(raw []byte) []Location {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]Location, 0, len(items))
	for _, it := range items {
		var l Location
		if err := json.Unmarshal(it, &l); err != nil {
			continue
		}
		if _, ok := LocationPath(l); ok {
			out = append(out, l)
		}
	}
	return out
}

// SitemapURLs lists the live sitemap entries for origin: the static pages followed by
// one page per distinct location, all with lastmod set to the UTC date of now.
func SitemapURLs(origin string, locations []Location, now time.Time) []URL {
	lastmod := now.UTC().Format("2006-01-02")
	urls := make([]URL, 0, len(staticPages)+len(locations))
	for _, p := range staticPages {
		urls = append(urls, URL{Loc: origin + p.path, LastMod: lastmod, ChangeFreq: p.changeFreq, Priority: p.priority})
	}
	seen := make(map[string]bool, len(locations))
	for _, l := range locations {
		path, ok := LocationPath(l)
		if !ok || seen[path] {
			continue
		}
		seen[path] = true
		urls = append(urls, URL{Loc: origin + path, LastMod: lastmod, ChangeFreq: "monthly", Priority: "0.7"})
	}
	return urls
}

// RenderSitemap writes urls as a sitemaps.org urlset indented by two spaces.
func RenderSitemap(urls []URL) (string, error) {
	if len(urls) == 0 {
		return EmptySitemap, nil
	}
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	set := doc.CreateElement("urlset")
	set.CreateAttr("xmlns", sitemapNS)
	for _, u := range urls {
		el := set.CreateElement("url")
		el.CreateElement("loc").SetText(u.Loc)
		el.CreateElement("lastmod").SetText(u.LastMod)
		el.CreateElement("changefreq").SetText(u.ChangeFreq)
		el.CreateElement("priority").SetText(u.Priority)
	}
	doc.Indent(2)
	out, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("seo: render sitemap: %w", err)
	}
	return strings.TrimRight(out, "\n"), nil
}

// CountURLs parses a sitemap body and returns its <url> entries' locations.
func CountURLs(body []byte) ([]string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, fmt.Errorf("seo: parse sitemap: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "urlset" {
		return nil, fmt.Errorf("seo: parse sitemap: missing urlset")
	}
	var locs []string
	for _, u := range root.SelectElements("url") {
		if loc := u.SelectElement("loc"); loc != nil {
			locs = append(locs, strings.TrimSpace(loc.Text()))
		}
	}
	return locs, nil
}
