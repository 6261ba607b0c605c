package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"thatsmartsite/backend/internal/telemetry"
	"thatsmartsite/backend/internal/telemetry/domain"
)

// requestMetadata is the JSON shape stored in Event.Metadata for http_request events.
type requestMetadata struct {
	ClientIP  string `json:"client_ip"`
	RequestID string `json:"request_id,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Host      string `json:"host,omitempty"`
}

// Telemetry emits an http_request event after each request. Best-effort and asynchronous;
// paths in skip are not emitted. A nil emitter makes it a no-op.
func Telemetry(emitter *telemetry.Async, skip ...string) func(http.Handler) http.Handler {
	skipped := make(map[string]bool, len(skip))
	for _, p := range skip {
		skipped[p] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := wrap(w)
			next.ServeHTTP(rw, r)
			if emitter == nil || skipped[r.URL.Path] {
				return
			}
			ctx := r.Context()
			meta, _ := json.Marshal(requestMetadata{
				ClientIP:  ClientIPFromContext(ctx),
				RequestID: GetRequestID(ctx),
				UserAgent: r.UserAgent(),
				Host:      r.Host,
			})
			ev := &domain.Event{
				UserID:     GetUserID(ctx),
				SessionID:  GetSessionID(ctx),
				EventType:  domain.EventRequest,
				Source:     "http_middleware",
				Method:     r.Method,
				Path:       routeTemplate(r),
				Status:     rw.statusCode,
				DurationMS: time.Since(start).Milliseconds(),
				Metadata:   meta,
			}
			ev.TenantID = tenantSlug(r)
			emitter.EmitAsync(ev)
		})
	}
}
