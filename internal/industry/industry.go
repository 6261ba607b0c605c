// Package industry loads the per-industry website defaults (hero, reviews and FAQ copy, SEO fields)
// used when a tenant signs up and when a tenant has no stored content.
package industry

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default is the industry used when a signup names none.
const Default = "mobile-detailing"

//go:embed defaults/*.yaml
var defaultsFS embed.FS

// Section is a titled page section.
type Section struct {
	Title    string `yaml:"title" json:"title"`
	Subtitle string `yaml:"subtitle" json:"subtitle"`
}

// FAQItem is one question and answer.
type FAQItem struct {
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
}

// SEO holds page metadata defaults.
type SEO struct {
	Title         string `yaml:"title" json:"title"`
	Description   string `yaml:"description" json:"description"`
	Keywords      string `yaml:"keywords" json:"keywords"`
	OGImage       string `yaml:"og_image" json:"ogImage"`
	TwitterImage  string `yaml:"twitter_image" json:"twitterImage"`
	CanonicalPath string `yaml:"canonical_path" json:"canonicalPath"`
	Robots        string `yaml:"robots" json:"robots"`
}

// Defaults is the default website copy for one industry. Text may contain the
// placeholders {business} and {city}; see Render.
type Defaults struct {
	Industry string `yaml:"industry" json:"industry"`
	Label    string `yaml:"label" json:"label"`
	Content  struct {
		Hero    Section `yaml:"hero" json:"hero"`
		Reviews Section `yaml:"reviews" json:"reviews"`
		FAQ     Section `yaml:"faq" json:"faq"`
	} `yaml:"content" json:"content"`
	FAQItems []FAQItem `yaml:"faq_items" json:"faqItems"`
	SEO      SEO       `yaml:"seo" json:"seo"`
}

// Registry holds the defaults of every known industry.
type Registry struct {
	byName map[string]Defaults
}

// Load parses the embedded defaults.
func Load() (*Registry, error) {
	return LoadFS(defaultsFS, "defaults")
}

// LoadFS parses every *.yaml file in dir of fsys. The industry key defaults to the file name.
func LoadFS(fsys fs.FS, dir string) (*Registry, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("industry: read defaults: %w", err)
	}
	reg := &Registry{byName: make(map[string]Defaults, len(entries))}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		raw, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("industry: read %s: %w", e.Name(), err)
		}
		var d Defaults
		if err := yaml.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("industry: parse %s: %w", e.Name(), err)
		}
		if d.Industry == "" {
			d.Industry = strings.TrimSuffix(e.Name(), ".yaml")
		}
		reg.byName[d.Industry] = d
	}
	return reg, nil
}

// Get returns the defaults for name.
func (r *Registry) Get(name string) (Defaults, bool) {
	if r == nil {
		return Defaults{}, false
	}
	d, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// Names returns the known industries, sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Render returns a copy of d with {business} and {city} substituted. An empty city renders as "your area".
func (d Defaults) Render(business, city string) Defaults {
	if strings.TrimSpace(city) == "" {
		city = "your area"
	}
	rep := strings.NewReplacer("{business}", business, "{city}", city)
	out := d
	out.Content.Hero = Section{Title: rep.Replace(d.Content.Hero.Title), Subtitle: rep.Replace(d.Content.Hero.Subtitle)}
	out.Content.Reviews = Section{Title: rep.Replace(d.Content.Reviews.Title), Subtitle: rep.Replace(d.Content.Reviews.Subtitle)}
	out.Content.FAQ = Section{Title: rep.Replace(d.Content.FAQ.Title), Subtitle: rep.Replace(d.Content.FAQ.Subtitle)}
	out.FAQItems = make([]FAQItem, len(d.FAQItems))
	for i, it := range d.FAQItems {
		out.FAQItems[i] = FAQItem{Question: rep.Replace(it.Question), Answer: rep.Replace(it.Answer)}
	}
	out.SEO.Title = rep.Replace(d.SEO.Title)
	out.SEO.Description = rep.Replace(d.SEO.Description)
	out.SEO.Keywords = rep.Replace(d.SEO.Keywords)
	return out
}

// Humanize turns an industry key into words: "mobile-detailing" -> "mobile detailing".
func Humanize(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), "-", " ")
}
