package repository

import (
	"context"
	"time"

	"thatsmartsite/backend/internal/session/domain"
)

// Repository defines persistence for sessions (auth.refresh_tokens).
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	// ListActiveByUser returns non-revoked, unexpired sessions for the user, newest first.
	ListActiveByUser(ctx context.Context, userID string) ([]*domain.Session, error)
	Create(ctx context.Context, s *domain.Session) error
	Revoke(ctx context.Context, id string) error
	RevokeByDevice(ctx context.Context, userID, deviceID string) (int64, error)
	RevokeAllByUser(ctx context.Context, userID string) error
	// RotateRefreshToken swaps the session's refresh binding from oldJti to newJti and stamps
	// last_used_at. It reports false when the session is revoked or no longer bound to oldJti.
	RotateRefreshToken(ctx context.Context, sessionID, oldJti, newJti, refreshTokenHash string, at time.Time) (bool, error)
}
