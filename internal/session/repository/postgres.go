package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"thatsmartsite/backend/internal/session/domain"
)

type sessionRow struct {
	ID         string       `db:"id"`
	UserID     string       `db:"user_id"`
	DeviceID   string       `db:"device_id"`
	RefreshJti string       `db:"refresh_jti"`
	TokenHash  string       `db:"token_hash"`
	IPAddress  string       `db:"ip_address"`
	UserAgent  string       `db:"user_agent"`
	ExpiresAt  time.Time    `db:"expires_at"`
	RevokedAt  sql.NullTime `db:"revoked_at"`
	LastUsedAt sql.NullTime `db:"last_used_at"`
	CreatedAt  time.Time    `db:"created_at"`
}

const sessionColumns = `id, user_id, device_id, refresh_jti, token_hash, ip_address, user_agent,
	expires_at, revoked_at, last_used_at, created_at`

type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	var row sessionRow
	err := r.db.GetContext(ctx, &row, `SELECT `+sessionColumns+` FROM auth.refresh_tokens WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rowToDomain(&row), nil
}

// ListActiveByUser returns non-revoked, unexpired sessions for the user, newest first.
func (r *PostgresRepository) ListActiveByUser(ctx context.Context, userID string) ([]*domain.Session, error) {
	var rows []sessionRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+sessionColumns+` FROM auth.refresh_tokens
		 WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > NOW()
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Session, len(rows))
	for i := range rows {
		out[i] = rowToDomain(&rows[i])
	}
	return out, nil
}

// Create persists the session. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auth.refresh_tokens
		 (id, user_id, device_id, refresh_jti, token_hash, ip_address, user_agent, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.UserID, s.DeviceID, s.RefreshJti, s.RefreshTokenHash, s.IPAddress, s.UserAgent, s.ExpiresAt, s.CreatedAt)
	return err
}

// Revoke marks one session revoked. Revoking an already revoked session is a no-op.
func (r *PostgresRepository) Revoke(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE auth.refresh_tokens SET revoked_at = NOW() WHERE id = $1 AND revoked_at IS NULL`, id)
	return err
}

// RevokeByDevice revokes all live sessions of the user on deviceID and returns how many were revoked.
func (r *PostgresRepository) RevokeByDevice(ctx context.Context, userID, deviceID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE auth.refresh_tokens SET revoked_at = NOW()
		 WHERE user_id = $1 AND device_id = $2 AND revoked_at IS NULL`, userID, deviceID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RevokeAllByUser revokes every live session of the user.
func (r *PostgresRepository) RevokeAllByUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE auth.refresh_tokens SET revoked_at = NOW() WHERE user_id = $1 AND revoked_at IS NULL`, userID)
	return err
}

// RotateRefreshToken binds the session to a new refresh token if it is still live and bound to oldJti.
func (r *PostgresRepository) RotateRefreshToken(ctx context.Context, sessionID, oldJti, newJti, refreshTokenHash string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE auth.refresh_tokens SET refresh_jti = $3, token_hash = $4, last_used_at = $5
		 WHERE id = $1 AND refresh_jti = $2 AND revoked_at IS NULL`,
		sessionID, oldJti, newJti, refreshTokenHash, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func rowToDomain(r *sessionRow) *domain.Session {
	s := &domain.Session{
		ID:               r.ID,
		UserID:           r.UserID,
		DeviceID:         r.DeviceID,
		RefreshJti:       r.RefreshJti,
		RefreshTokenHash: r.TokenHash,
		IPAddress:        r.IPAddress,
		UserAgent:        r.UserAgent,
		ExpiresAt:        r.ExpiresAt,
		CreatedAt:        r.CreatedAt,
	}
	if r.RevokedAt.Valid {
		t := r.RevokedAt.Time
		s.RevokedAt = &t
	}
	if r.LastUsedAt.Valid {
		t := r.LastUsedAt.Time
		s.LastUsedAt = &t
	}
	return s
}
