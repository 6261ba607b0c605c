package domain

import "time"

// Session is one signed-in device: it owns the current refresh token of a user on that device.
type Session struct {
	ID               string
	UserID           string
	DeviceID         string
	RefreshJti       string // jti of the current refresh token; rotated on every refresh
	RefreshTokenHash string // SHA-256 of the current refresh token
	IPAddress        string
	UserAgent        string
	ExpiresAt        time.Time
	RevokedAt        *time.Time
	LastUsedAt       *time.Time
	CreatedAt        time.Time
}

// Active reports whether the session is neither revoked nor expired at now.
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
