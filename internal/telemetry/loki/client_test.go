package loki

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func captureServer(t *testing.T, status int) (*httptest.Server, *PushRequest) {
	t.Helper()
	got := &PushRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/loki/api/v1/push" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestNewClient_EmptyURL(t *testing.T) {
	if _, err := NewClient("  ", nil); err == nil {
		t.Error("expected error for empty URL")
	}
}

func TestPushEventJSON_Labels(t *testing.T) {
	srv, got := captureServer(t, http.StatusNoContent)
	c, err := NewClient(srv.URL+"/", srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	raw := []byte(`{"tenantId":"acme detail","eventType":"http_request","source":"http","createdAt":"2024-05-01T10:00:00Z"}`)
	if err := c.PushEventJSON(context.Background(), raw); err != nil {
		t.Fatalf("PushEventJSON: %v", err)
	}
	if len(got.Streams) != 1 {
		t.Fatalf("streams = %d, want 1", len(got.Streams))
	}
	wantLabels := map[string]string{
		"job":        JobLabel,
		"tenant":     "acme_detail",
		"event_type": "http_request",
		"source":     "http",
	}
	if diff := cmp.Diff(wantLabels, got.Streams[0].Stream); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	wantTS := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC).UnixNano()
	if v := got.Streams[0].Values[0]; v[0] != itoa(wantTS) || v[1] != string(raw) {
		t.Errorf("values = %v", v)
	}
}

func TestPushEventJSON_Unparseable(t *testing.T) {
	srv, got := captureServer(t, http.StatusNoContent)
	c, _ := NewClient(srv.URL, nil)
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	if err := c.PushEventJSON(context.Background(), []byte("not json")); err != nil {
		t.Fatalf("PushEventJSON: %v", err)
	}
	if diff := cmp.Diff(map[string]string{"job": JobLabel}, got.Streams[0].Stream); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	if v := got.Streams[0].Values[0][0]; v != itoa(fixed.UnixNano()) {
		t.Errorf("timestamp = %s", v)
	}
}

func TestPush_Non2xx(t *testing.T) {
	srv, _ := captureServer(t, http.StatusBadRequest)
	c, _ := NewClient(srv.URL, nil)
	if err := c.Push(context.Background(), time.Now(), "line", nil); err == nil {
		t.Error("expected error for 400 response")
	}
}

func itoa(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
