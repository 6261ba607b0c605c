package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"thatsmartsite/backend/internal/user/domain"
)

type userRow struct {
	ID           string         `db:"id"`
	Email        string         `db:"email"`
	PasswordHash string         `db:"password_hash"`
	Name         string         `db:"name"`
	Phone        sql.NullString `db:"phone"`
	IsAdmin      bool           `db:"is_admin"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLoginAt  sql.NullTime   `db:"last_login_at"`
}

const userColumns = `id, email, password_hash, name, phone, is_admin, created_at, updated_at, last_login_at`

type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM auth.users WHERE id = $1`, id)
}

// GetByEmail returns the user for the (normalized) email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM auth.users WHERE email = $1`, domain.NormalizeEmail(email))
}

// Create persists the user. ID and CreatedAt are assigned by the database when empty.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	return CreateWith(ctx, r.db, u)
}

// CreateWith inserts u using q, which may be a transaction. ID and CreatedAt are written back to u.
func CreateWith(ctx context.Context, q sqlx.QueryerContext, u *domain.User) error {
	var phone sql.NullString
	if u.Phone != "" {
		phone = sql.NullString{String: u.Phone, Valid: true}
	}
	row := q.QueryRowxContext(ctx,
		`INSERT INTO auth.users (email, password_hash, name, phone, is_admin)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		domain.NormalizeEmail(u.Email), u.PasswordHash, u.Name, phone, u.IsAdmin)
	return row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

// UpdateLastLogin stamps last_login_at for the user.
func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE auth.users SET last_login_at = $2, updated_at = NOW() WHERE id = $1`, id, at)
	return err
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rowToDomain(&row), nil
}

func rowToDomain(r *userRow) *domain.User {
	u := &domain.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Name:         r.Name,
		Phone:        r.Phone.String,
		IsAdmin:      r.IsAdmin,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.LastLoginAt.Valid {
		t := r.LastLoginAt.Time
		u.LastLoginAt = &t
	}
	return u
}
