package domain

import (
	"encoding/json"
	"time"
)

// Event types emitted by the HTTP layer and services.
const (
	EventRequest      = "http_request"
	EventLogin        = "login"
	EventLoginFailed  = "login_failed"
	EventSignup       = "signup"
	EventSitemapBuild = "sitemap_build"
	EventReviewVote   = "review_vote"
)

// Event is one telemetry record. Tenant and user are optional.
// The JSON form is the Kafka message value consumed by the worker.
type Event struct {
	TenantID   string          `json:"tenantId,omitempty"`
	UserID     string          `json:"userId,omitempty"`
	SessionID  string          `json:"sessionId,omitempty"`
	EventType  string          `json:"eventType"`
	Source     string          `json:"source"`
	Method     string          `json:"method,omitempty"`
	Path       string          `json:"path,omitempty"`
	Status     int             `json:"status,omitempty"`
	DurationMS int64           `json:"durationMs,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}
