package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"thatsmartsite/backend/internal/db"
	"thatsmartsite/backend/internal/servicearea/domain"
)

// PostgresRepository stores service areas in tenants.business.service_areas (JSONB).
type PostgresRepository struct {
	db  *sqlx.DB
	log *zap.Logger
}

// NewPostgresRepository returns a service area repository backed by db.
func NewPostgresRepository(db *sqlx.DB, log *zap.Logger) *PostgresRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &PostgresRepository{db: db, log: log}
}

// Get returns the stored areas. Malformed JSON reads as no areas.
func (r *PostgresRepository) Get(ctx context.Context, slug string) ([]domain.Area, bool, error) {
	var raw []byte
	err := r.db.GetContext(ctx, &raw, `SELECT service_areas FROM tenants.business WHERE slug = $1`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return r.decode(slug, raw), true, nil
}

// Mutate locks the business row (SELECT ... FOR UPDATE), applies fn and writes the result
// in the same transaction. fn's error aborts without writing, as do malformed stored areas.
func (r *PostgresRepository) Mutate(ctx context.Context, slug string, fn MutateFunc) ([]domain.Area, bool, error) {
	var (
		out   []domain.Area
		found bool
	)
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var raw []byte
		err := tx.GetContext(ctx, &raw, `SELECT service_areas FROM tenants.business WHERE slug = $1 FOR UPDATE`, slug)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		next, encoded, err := apply(raw, fn)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE tenants.business SET service_areas = $2::jsonb, updated_at = NOW() WHERE slug = $1`,
			slug, string(encoded)); err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, found, err
	}
	return out, found, nil
}

const lookupQuery = `
SELECT DISTINCT b.slug
FROM tenants.business b,
     jsonb_array_elements(CASE WHEN jsonb_typeof(b.service_areas) = 'array' THEN b.service_areas ELSE '[]'::jsonb END) AS sa
WHERE b.application_status = 'approved'
  AND lower(trim(sa->>'city')) = lower($1)
  AND lower(trim(sa->>'state')) = lower($2)
  AND ($3 = '' OR coalesce(sa->>'zip', '') = '' OR sa->>'zip' = $3)
ORDER BY b.slug`

// Lookup matches city and state case-insensitively. An area without zip matches any zip.
func (r *PostgresRepository) Lookup(ctx context.Context, city, state, zip string) ([]string, error) {
	var slugs []string
	if err := r.db.SelectContext(ctx, &slugs, lookupQuery,
		strings.TrimSpace(city), strings.TrimSpace(state), strings.TrimSpace(zip)); err != nil {
		return nil, err
	}
	return slugs, nil
}

func (r *PostgresRepository) decode(slug string, raw []byte) []domain.Area {
	areas, err := domain.Parse(raw)
	if err != nil {
		r.log.Warn("servicearea: malformed service_areas, treating as empty", zap.String("slug", slug), zap.Error(err))
		return nil
	}
	return areas
}
