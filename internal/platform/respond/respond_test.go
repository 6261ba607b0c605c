package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOK(t *testing.T) {
	w := httptest.NewRecorder()
	OK(w, map[string]string{"slug": "acme"})

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	var body struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !body.Success || body.Data["slug"] != "acme" {
		t.Errorf("body = %+v", body)
	}
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()
	ErrorWithMessage(w, http.StatusUnauthorized, CodeNoToken, "Access token required", "Please log in")

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	var body ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := ErrorBody{Success: false, Error: "Access token required", Code: CodeNoToken, Message: "Please log in"}
	if body != want {
		t.Errorf("body = %+v, want %+v", body, want)
	}
}

func TestTooManyRequests(t *testing.T) {
	w := httptest.NewRecorder()
	TooManyRequests(w, 0)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want 1", got)
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","extra":1}`))
	if err := DecodeJSON(r, &v); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if v.Name != "x" {
		t.Errorf("Name = %q, want x", v.Name)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if err := DecodeJSON(r, &v); err == nil || err.Error() != "request body is required" {
		t.Errorf("empty body err = %v", err)
	}
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{bad"))
	if err := DecodeJSON(r, &v); err == nil || err.Error() != "invalid JSON body" {
		t.Errorf("bad body err = %v", err)
	}
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?limit=25&offset=-3&page=x", nil)
	if got := QueryInt(r, "limit", 10); got != 25 {
		t.Errorf("limit = %d, want 25", got)
	}
	if got := QueryInt(r, "offset", 0); got != 0 {
		t.Errorf("offset = %d, want 0", got)
	}
	if got := QueryInt(r, "page", 1); got != 1 {
		t.Errorf("page = %d, want 1", got)
	}
	if got := QueryInt(r, "missing", 7); got != 7 {
		t.Errorf("missing = %d, want 7", got)
	}
}
