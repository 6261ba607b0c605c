package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"thatsmartsite/backend/internal/websitecontent/domain"
)

const contentColumns = `business_id, hero_title, hero_subtitle, reviews_title, reviews_subtitle,
	faq_title, faq_subtitle, faq_items, seo_title, seo_description, seo_keywords,
	seo_og_image, seo_twitter_image, seo_canonical_path, seo_robots, created_at, updated_at`

const upsertQuery = `
INSERT INTO website.content (
	business_id, hero_title, hero_subtitle, reviews_title, reviews_subtitle,
	faq_title, faq_subtitle, faq_items, seo_title, seo_description, seo_keywords,
	seo_og_image, seo_twitter_image, seo_canonical_path, seo_robots)
VALUES (
	:business_id, :hero_title, :hero_subtitle, :reviews_title, :reviews_subtitle,
	:faq_title, :faq_subtitle, CAST(:faq_items AS jsonb), :seo_title, :seo_description, :seo_keywords,
	:seo_og_image, :seo_twitter_image, :seo_canonical_path, :seo_robots)
ON CONFLICT (business_id) DO UPDATE SET
	hero_title = EXCLUDED.hero_title,
	hero_subtitle = EXCLUDED.hero_subtitle,
	reviews_title = EXCLUDED.reviews_title,
	reviews_subtitle = EXCLUDED.reviews_subtitle,
	faq_title = EXCLUDED.faq_title,
	faq_subtitle = EXCLUDED.faq_subtitle,
	faq_items = EXCLUDED.faq_items,
	seo_title = EXCLUDED.seo_title,
	seo_description = EXCLUDED.seo_description,
	seo_keywords = EXCLUDED.seo_keywords,
	seo_og_image = EXCLUDED.seo_og_image,
	seo_twitter_image = EXCLUDED.seo_twitter_image,
	seo_canonical_path = EXCLUDED.seo_canonical_path,
	seo_robots = EXCLUDED.seo_robots,
	updated_at = NOW()
RETURNING ` + contentColumns

// PostgresRepository stores content in website.content.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns a content repository backed by db.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetBySlug returns the business id and content row for slug.
func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (int64, *domain.Content, bool, error) {
	var businessID int64
	err := r.db.GetContext(ctx, &businessID, `SELECT id FROM tenants.business WHERE slug = $1`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil, false, nil
	}
	if err != nil {
		return 0, nil, false, err
	}
	c, err := GetByBusinessID(ctx, r.db, businessID)
	if err != nil {
		return 0, nil, false, err
	}
	return businessID, c, true, nil
}

// Upsert inserts or replaces the content row.
func (r *PostgresRepository) Upsert(ctx context.Context, c *domain.Content) (*domain.Content, error) {
	return UpsertWith(ctx, r.db, c)
}

// GetByBusinessID returns the content row, or nil if there is none.
func GetByBusinessID(ctx context.Context, q sqlx.QueryerContext, businessID int64) (*domain.Content, error) {
	var c domain.Content
	err := sqlx.GetContext(ctx, q, &c, `SELECT `+contentColumns+` FROM website.content WHERE business_id = $1`, businessID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpsertWith runs the upsert on q, which may be a transaction.
func UpsertWith(ctx context.Context, q sqlx.ExtContext, c *domain.Content) (*domain.Content, error) {
	query, args, err := sqlx.Named(upsertQuery, c)
	if err != nil {
		return nil, err
	}
	query = q.Rebind(query)
	var out domain.Content
	if err := sqlx.GetContext(ctx, q, &out, query, args...); err != nil {
		return nil, err
	}
	return &out, nil
}
