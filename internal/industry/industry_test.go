package industry

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/mux"
)

func TestLoad_Embedded(t *testing.T) {
	reg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"house-cleaning", "lawncare", "maid-service", "mobile-detailing", "pet-grooming"}
	if diff := cmp.Diff(want, reg.Names()); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}
	for _, name := range want {
		d, ok := reg.Get(name)
		if !ok {
			t.Fatalf("Get(%q) missing", name)
		}
		if d.Content.Hero.Title == "" || d.SEO.Title == "" || d.SEO.Robots == "" || len(d.FAQItems) == 0 {
			t.Errorf("%s defaults incomplete: %+v", name, d)
		}
	}
}

func TestLoadFS_NameFromFile(t *testing.T) {
	fsys := fstest.MapFS{
		"d/roofing.yaml": {Data: []byte("label: Roofing\nseo:\n  title: \"{business} Roofing\"\n")},
		"d/notes.txt":    {Data: []byte("ignored")},
	}
	reg, err := LoadFS(fsys, "d")
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	d, ok := reg.Get("Roofing")
	if !ok || d.Label != "Roofing" {
		t.Errorf("Get(Roofing) = %+v, %v", d, ok)
	}
}

func TestLoadFS_BadYAML(t *testing.T) {
	fsys := fstest.MapFS{"d/bad.yaml": {Data: []byte("content: [unclosed")}}
	if _, err := LoadFS(fsys, "d"); err == nil {
		t.Error("expected parse error")
	}
}

func TestRender(t *testing.T) {
	reg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	d, _ := reg.Get(Default)
	got := d.Render("Acme Detailing", "San Diego")
	if got.Content.Hero.Title != "Premium Mobile Detailing in San Diego" {
		t.Errorf("hero title = %q", got.Content.Hero.Title)
	}
	if got.SEO.Title != "Acme Detailing | Mobile Detailing in San Diego" {
		t.Errorf("seo title = %q", got.SEO.Title)
	}
	if d.Content.Hero.Title == got.Content.Hero.Title {
		t.Error("Render modified the registry copy")
	}

	noCity := d.Render("Acme", "")
	if noCity.Content.Hero.Title != "Premium Mobile Detailing in your area" {
		t.Errorf("hero title without city = %q", noCity.Content.Hero.Title)
	}
}

func TestHandler_Defaults(t *testing.T) {
	reg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	r := mux.NewRouter()
	r.HandleFunc("/api/industries/{industry}/defaults", NewHandler(reg).Defaults)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/industries/lawncare/defaults", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Data Defaults `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Data.Industry != "lawncare" {
		t.Errorf("industry = %q", body.Data.Industry)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/industries/plumbing/defaults", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown industry status = %d, want 404", rec.Code)
	}
}

func TestHumanize(t *testing.T) {
	if got := Humanize("mobile-detailing"); got != "mobile detailing" {
		t.Errorf("Humanize = %q", got)
	}
}
