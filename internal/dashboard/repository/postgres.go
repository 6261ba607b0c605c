package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"thatsmartsite/backend/internal/dashboard/domain"
)

// PostgresRepository aggregates reputation.reviews per tenant.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns a dashboard repository backed by db.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Only published reviews count towards the dashboard.
const overviewQuery = `
SELECT b.id, b.slug, b.business_name, COALESCE(b.industry, '') AS industry,
       b.application_status, b.created_at,
       COUNT(r.id) AS total_reviews,
       COALESCE(AVG(r.rating), 0)::float8 AS average_rating,
       COUNT(r.id) FILTER (WHERE r.created_at >= $2) AS recent_reviews,
       COUNT(r.id) FILTER (WHERE r.rating >= 4) AS positive_reviews,
       COUNT(r.id) FILTER (WHERE r.rating <= 2) AS negative_reviews
FROM tenants.business b
LEFT JOIN reputation.reviews r ON r.tenant_slug = b.slug AND r.status = 'approved'
WHERE b.slug = $1 AND b.application_status = 'approved'
GROUP BY b.id`

// Overview implements Repository.
func (r *PostgresRepository) Overview(ctx context.Context, slug string, since time.Time) (*domain.Overview, error) {
	var o domain.Overview
	err := r.db.GetContext(ctx, &o, overviewQuery, slug, since)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Distribution implements Repository.
func (r *PostgresRepository) Distribution(ctx context.Context, slug string) ([]domain.RatingCount, error) {
	out := []domain.RatingCount{}
	err := r.db.SelectContext(ctx, &out, `
SELECT rating, COUNT(*) AS count
FROM reputation.reviews
WHERE tenant_slug = $1 AND status = 'approved'
GROUP BY rating
ORDER BY rating DESC`, slug)
	return out, err
}

// Sources implements Repository.
func (r *PostgresRepository) Sources(ctx context.Context, slug string) ([]domain.SourceCount, error) {
	out := []domain.SourceCount{}
	err := r.db.SelectContext(ctx, &out, `
SELECT COALESCE(source, 'website') AS source, COUNT(*) AS count
FROM reputation.reviews
WHERE tenant_slug = $1 AND status = 'approved'
GROUP BY 1
ORDER BY count DESC, source`, slug)
	return out, err
}

// Recent implements Repository.
func (r *PostgresRepository) Recent(ctx context.Context, slug string, since time.Time, limit, offset int) ([]domain.RecentReview, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `
SELECT COUNT(*) FROM reputation.reviews
WHERE tenant_slug = $1 AND status = 'approved' AND created_at >= $2`, slug, since); err != nil {
		return nil, 0, err
	}
	out := []domain.RecentReview{}
	err := r.db.SelectContext(ctx, &out, `
SELECT id, customer_name, rating, COALESCE(comment, '') AS comment,
       COALESCE(source, 'website') AS source, created_at
FROM reputation.reviews
WHERE tenant_slug = $1 AND status = 'approved' AND created_at >= $2
ORDER BY created_at DESC, id DESC
LIMIT $3 OFFSET $4`, slug, since, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Trends implements Repository. At most the last twelve months are returned, newest first.
func (r *PostgresRepository) Trends(ctx context.Context, slug string, since time.Time) ([]domain.MonthTrend, error) {
	out := []domain.MonthTrend{}
	err := r.db.SelectContext(ctx, &out, `
SELECT DATE_TRUNC('month', created_at) AS month,
       COUNT(*) AS review_count,
       AVG(rating)::float8 AS avg_rating
FROM reputation.reviews
WHERE tenant_slug = $1 AND status = 'approved' AND created_at >= $2
GROUP BY 1
ORDER BY month DESC
LIMIT 12`, slug, since)
	return out, err
}
