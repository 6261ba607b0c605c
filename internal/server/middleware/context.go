// Package middleware provides the HTTP middleware chain of the site backend:
// request ids, access logging, panic recovery, CORS, client IP, auth, tenant
// resolution, rate limiting, compression, metrics, telemetry and audit.
package middleware

import (
	"context"

	"thatsmartsite/backend/internal/security"
)

type contextKey struct{ name string }

var (
	identityKey  = contextKey{"identity"}
	clientIPKey  = contextKey{"client_ip"}
	tenantKey    = contextKey{"tenant"}
	requestIDKey = contextKey{"request_id"}
)

// WithIdentity returns a context carrying the authenticated caller.
func WithIdentity(ctx context.Context, id security.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// GetIdentity returns the authenticated caller and true if set.
func GetIdentity(ctx context.Context) (security.Identity, bool) {
	v, ok := ctx.Value(identityKey).(security.Identity)
	return v, ok && v.UserID != ""
}

// GetUserID returns the authenticated user id, or "" if the request is anonymous.
func GetUserID(ctx context.Context) string {
	id, _ := GetIdentity(ctx)
	return id.UserID
}

// GetSessionID returns the session id of the access token, or "".
func GetSessionID(ctx context.Context) string {
	id, _ := GetIdentity(ctx)
	return id.SessionID
}

// WithClientIP returns a context carrying the client IP.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIPFromContext returns the client IP stored by ClientIP, or "".
func ClientIPFromContext(ctx context.Context) string {
	v, _ := ctx.Value(clientIPKey).(string)
	return v
}

// WithTenant returns a context carrying the resolved tenant.
func WithTenant(ctx context.Context, t *ResolvedTenant) context.Context {
	return context.WithValue(ctx, tenantKey, t)
}

// GetTenant returns the tenant resolved for the request, or nil.
func GetTenant(ctx context.Context) *ResolvedTenant {
	v, _ := ctx.Value(tenantKey).(*ResolvedTenant)
	return v
}

// GetRequestID returns the request id set by RequestID, or "".
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}
