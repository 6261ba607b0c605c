// Package domain holds the per-tenant website copy stored in website.content.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"thatsmartsite/backend/internal/industry"
	"thatsmartsite/backend/internal/platform/validate"
)

// FAQItem is one question and answer.
type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FAQItems is stored as a JSONB array.
type FAQItems []FAQItem

// Scan implements sql.Scanner. NULL and malformed values scan as no items.
func (f *FAQItems) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*f = FAQItems{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("faq_items: unsupported type %T", src)
	}
	var items FAQItems
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		items = FAQItems{}
	}
	*f = items
	return nil
}

// Value implements driver.Valuer.
func (f FAQItems) Value() (driver.Value, error) {
	if f == nil {
		return "[]", nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Content is the editable website copy of one business.
type Content struct {
	BusinessID       int64     `db:"business_id" json:"business_id"`
	HeroTitle        string    `db:"hero_title" json:"hero_title"`
	HeroSubtitle     string    `db:"hero_subtitle" json:"hero_subtitle"`
	ReviewsTitle     string    `db:"reviews_title" json:"reviews_title"`
	ReviewsSubtitle  string    `db:"reviews_subtitle" json:"reviews_subtitle"`
	FAQTitle         string    `db:"faq_title" json:"faq_title"`
	FAQSubtitle      string    `db:"faq_subtitle" json:"faq_subtitle"`
	FAQItems         FAQItems  `db:"faq_items" json:"faq_items"`
	SEOTitle         string    `db:"seo_title" json:"seo_title"`
	SEODescription   string    `db:"seo_description" json:"seo_description"`
	SEOKeywords      string    `db:"seo_keywords" json:"seo_keywords"`
	SEOOGImage       string    `db:"seo_og_image" json:"seo_og_image"`
	SEOTwitterImage  string    `db:"seo_twitter_image" json:"seo_twitter_image"`
	SEOCanonicalPath string    `db:"seo_canonical_path" json:"seo_canonical_path"`
	SEORobots        string    `db:"seo_robots" json:"seo_robots"`
	CreatedAt        time.Time `db:"created_at" json:"created_at,omitempty"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// Empty is the content served for a tenant without a stored row.
func Empty(businessID int64) *Content {
	return &Content{BusinessID: businessID, FAQItems: FAQItems{}}
}

// FromDefaults builds initial content for a new business from rendered industry defaults.
// Missing fields fall back to generic copy built from the business name and industry.
func FromDefaults(businessName, industryName, city string, d *industry.Defaults) *Content {
	human := industry.Humanize(industryName)
	area := city
	if strings.TrimSpace(area) == "" {
		area = "your area"
	}
	c := &Content{
		HeroTitle:        "Welcome to " + businessName,
		HeroSubtitle:     fmt.Sprintf("Professional %s services in %s", human, area),
		ReviewsTitle:     "What Our Customers Say",
		FAQTitle:         "Frequently Asked Questions",
		FAQItems:         FAQItems{},
		SEOTitle:         fmt.Sprintf("%s | Professional %s", businessName, human),
		SEODescription:   fmt.Sprintf("Professional %s services in %s", human, area),
		SEOCanonicalPath: "/",
		SEORobots:        "index,follow",
	}
	if d == nil {
		return c
	}
	r := d.Render(businessName, city)
	setIf(&c.HeroTitle, r.Content.Hero.Title)
	setIf(&c.HeroSubtitle, r.Content.Hero.Subtitle)
	setIf(&c.ReviewsTitle, r.Content.Reviews.Title)
	setIf(&c.ReviewsSubtitle, r.Content.Reviews.Subtitle)
	setIf(&c.FAQTitle, r.Content.FAQ.Title)
	setIf(&c.FAQSubtitle, r.Content.FAQ.Subtitle)
	setIf(&c.SEOTitle, r.SEO.Title)
	setIf(&c.SEODescription, r.SEO.Description)
	setIf(&c.SEOKeywords, r.SEO.Keywords)
	setIf(&c.SEOOGImage, r.SEO.OGImage)
	setIf(&c.SEOTwitterImage, r.SEO.TwitterImage)
	setIf(&c.SEOCanonicalPath, r.SEO.CanonicalPath)
	setIf(&c.SEORobots, r.SEO.Robots)
	for _, it := range r.FAQItems {
		c.FAQItems = append(c.FAQItems, FAQItem{Question: it.Question, Answer: it.Answer})
	}
	return c
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Length limits for editable fields.
const (
	MaxTitle    = 255
	MaxSubtitle = 500
	MaxQuestion = 500
	MaxAnswer   = 2000
	MaxFAQItems = 50
)

// Validate checks field lengths and FAQ items. Canonical path must start with "/".
func (c *Content) Validate() error {
	checks := []struct {
		field, value string
		max          int
	}{
		{"hero_title", c.HeroTitle, MaxTitle},
		{"hero_subtitle", c.HeroSubtitle, MaxSubtitle},
		{"reviews_title", c.ReviewsTitle, MaxTitle},
		{"reviews_subtitle", c.ReviewsSubtitle, MaxSubtitle},
		{"faq_title", c.FAQTitle, MaxTitle},
		{"faq_subtitle", c.FAQSubtitle, MaxSubtitle},
		{"seo_title", c.SEOTitle, MaxTitle},
		{"seo_description", c.SEODescription, MaxSubtitle},
		{"seo_keywords", c.SEOKeywords, MaxSubtitle},
		{"seo_og_image", c.SEOOGImage, MaxSubtitle},
		{"seo_twitter_image", c.SEOTwitterImage, MaxSubtitle},
		{"seo_canonical_path", c.SEOCanonicalPath, MaxTitle},
		{"seo_robots", c.SEORobots, 100},
	}
	for _, ch := range checks {
		if utf8.RuneCountInString(ch.value) > ch.max {
			return validate.New(ch.field, fmt.Sprintf("%s must be at most %d characters", ch.field, ch.max))
		}
	}
	if c.SEOCanonicalPath != "" && !strings.HasPrefix(c.SEOCanonicalPath, "/") {
		return validate.New("seo_canonical_path", "seo_canonical_path must start with /")
	}
	if len(c.FAQItems) > MaxFAQItems {
		return validate.New("faq_items", fmt.Sprintf("at most %d faq items are allowed", MaxFAQItems))
	}
	for i, it := range c.FAQItems {
		if strings.TrimSpace(it.Question) == "" || strings.TrimSpace(it.Answer) == "" {
			return validate.New("faq_items", fmt.Sprintf("faq item %d needs a question and an answer", i+1))
		}
		if utf8.RuneCountInString(it.Question) > MaxQuestion || utf8.RuneCountInString(it.Answer) > MaxAnswer {
			return validate.New("faq_items", fmt.Sprintf("faq item %d is too long", i+1))
		}
	}
	return nil
}
