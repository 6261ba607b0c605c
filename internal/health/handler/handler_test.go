package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"thatsmartsite/backend/internal/health"
)

type mockPinger struct{ err error }

func (m mockPinger) PingContext(context.Context) error { return m.err }

type mockPolicyChecker struct{ err error }

func (m mockPolicyChecker) HealthCheck(context.Context) error { return m.err }

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal %s: %v", rec.Body, err)
	}
	return body
}

func TestHTTP_Ready(t *testing.T) {
	tests := []struct {
		name       string
		pinger     health.Pinger
		shutdown   bool
		wantCode   int
		wantStatus string
		wantReason string
	}{
		{"ready", mockPinger{}, false, http.StatusOK, "ready", ""},
		{"db error", mockPinger{err: errors.New("refused")}, false, http.StatusServiceUnavailable, "not_ready", health.ReasonDatabaseError},
		{"shutting down", mockPinger{}, true, http.StatusServiceUnavailable, "not_ready", health.ReasonShuttingDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := health.NewChecker(tt.pinger, nil)
			if tt.shutdown {
				c.MarkShuttingDown()
			}
			rec := httptest.NewRecorder()
			NewHTTP(c, nil).Ready(rec, httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			body := decode(t, rec)
			if body["status"] != tt.wantStatus {
				t.Errorf("status = %v, want %q", body["status"], tt.wantStatus)
			}
			if tt.wantReason != "" && body["reason"] != tt.wantReason {
				t.Errorf("reason = %v, want %q", body["reason"], tt.wantReason)
			}
		})
	}
}

func TestHTTP_HealthAndLive(t *testing.T) {
	h := NewHTTP(health.NewChecker(mockPinger{err: errors.New("refused")}, nil), nil)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", rec.Code)
	}
	body := decode(t, rec)
	if body["status"] != "DEGRADED" {
		t.Errorf("status = %v, want DEGRADED", body["status"])
	}
	db, _ := body["database"].(map[string]interface{})
	if db["connected"] != false || db["error"] != "refused" {
		t.Errorf("database = %v", db)
	}

	rec = httptest.NewRecorder()
	h.Live(rec, httptest.NewRequest(http.MethodGet, "/api/health/live", nil))
	if rec.Code != http.StatusOK || decode(t, rec)["status"] != "alive" {
		t.Errorf("live = %d %s", rec.Code, rec.Body)
	}
}

func TestGRPC_Sync(t *testing.T) {
	tests := []struct {
		name   string
		pinger health.Pinger
		policy health.PolicyChecker
		want   healthpb.HealthCheckResponse_ServingStatus
	}{
		{"serving", mockPinger{}, mockPolicyChecker{}, healthpb.HealthCheckResponse_SERVING},
		{"db down", mockPinger{err: errors.New("refused")}, mockPolicyChecker{}, healthpb.HealthCheckResponse_NOT_SERVING},
		{"policy down", mockPinger{}, mockPolicyChecker{err: errors.New("eval")}, healthpb.HealthCheckResponse_NOT_SERVING},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGRPC(health.NewChecker(tt.pinger, tt.policy), nil)
			if got := g.Sync(context.Background()); got != tt.want {
				t.Errorf("Sync() = %v, want %v", got, tt.want)
			}
			for _, svc := range []string{"", Service} {
				resp, err := g.Server().Check(context.Background(), &healthpb.HealthCheckRequest{Service: svc})
				if err != nil {
					t.Fatalf("Check(%q): %v", svc, err)
				}
				if resp.GetStatus() != tt.want {
					t.Errorf("Check(%q) = %v, want %v", svc, resp.GetStatus(), tt.want)
				}
			}
		})
	}
}

func TestGRPC_RunStopsOnCancel(t *testing.T) {
	g := NewGRPC(health.NewChecker(mockPinger{}, nil), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		g.Run(ctx, 10*time.Millisecond)
		close(done)
	}()
	cancel()
	<-done
	resp, err := g.Server().Check(context.Background(), &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status after Run = %v, want NOT_SERVING", resp.GetStatus())
	}
}
