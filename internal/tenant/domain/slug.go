package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// MaxSlugLength bounds generated slugs.
const MaxSlugLength = 50

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSpace   = regexp.MustCompile(`\s+`)
	slugDashes  = regexp.MustCompile(`-+`)
)

// GenerateSlug derives a URL slug from a business name: lower-case, only [a-z0-9-],
// whitespace runs become one dash, dash runs collapse, cut to MaxSlugLength.
func GenerateSlug(name string) string {
	s := strings.ToLower(name)
	s = slugInvalid.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = slugSpace.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	if len(s) > MaxSlugLength {
		s = s[:MaxSlugLength]
	}
	return s
}

// SlugCandidate returns base for attempt 0 and base-N for attempt N.
func SlugCandidate(base string, attempt int) string {
	if attempt <= 0 {
		return base
	}
	return base + "-" + strconv.Itoa(attempt)
}
