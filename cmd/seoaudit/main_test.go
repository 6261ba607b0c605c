package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"thatsmartsite/backend/internal/seo"
)

func runCheck(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"check"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestCheck(t *testing.T) {
	h := seo.NewHandler(nil, nil, seo.Options{})
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", h.Robots)
	mux.HandleFunc("/sitemap.xml", h.Sitemap)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	out, err := runCheck(t, "--host", "acme.example.com", "--base-url", srv.URL)
	if err != nil {
		t.Fatalf("live check: %v\n%s", err, out)
	}
	if !strings.Contains(out, "sitemap urls:      5") || !strings.Contains(out, "(live)") {
		t.Errorf("output:\n%s", out)
	}

	out, err = runCheck(t, "--host", "localhost:3000", "--base-url", srv.URL)
	if err != nil {
		t.Fatalf("preview check: %v\n%s", err, out)
	}
	if !strings.Contains(out, "robots blocks all: true") {
		t.Errorf("output:\n%s", out)
	}
}

func TestCheck_BlockedLiveHostFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte(seo.BlockAllRobots()))
			return
		}
		_, _ = w.Write([]byte(seo.EmptySitemap))
	}))
	defer srv.Close()

	if _, err := runCheck(t, "--host", "acme.example.com", "--base-url", srv.URL); err == nil {
		t.Error("expected an error for a live host that blocks all crawlers")
	}
}

func TestCheck_RequiresHost(t *testing.T) {
	if _, err := runCheck(t); err == nil {
		t.Error("expected an error without --host")
	}
}
