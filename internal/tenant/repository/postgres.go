package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"thatsmartsite/backend/internal/db"
	"thatsmartsite/backend/internal/tenant/domain"
	userrepo "thatsmartsite/backend/internal/user/repository"
	contentrepo "thatsmartsite/backend/internal/websitecontent/repository"
)

type businessRow struct {
	ID                int64               `db:"id"`
	Slug              string              `db:"slug"`
	BusinessName      string              `db:"business_name"`
	FirstName         string              `db:"first_name"`
	LastName          string              `db:"last_name"`
	UserID            sql.NullString      `db:"user_id"`
	BusinessPhone     string              `db:"business_phone"`
	PersonalPhone     string              `db:"personal_phone"`
	BusinessEmail     string              `db:"business_email"`
	PersonalEmail     string              `db:"personal_email"`
	Industry          string              `db:"industry"`
	ApplicationStatus string              `db:"application_status"`
	ApplicationDate   time.Time           `db:"application_date"`
	ApprovedDate      sql.NullTime        `db:"approved_date"`
	WebsiteDomain     sql.NullString      `db:"website_domain"`
	GBPURL            sql.NullString      `db:"gbp_url"`
	FacebookURL       sql.NullString      `db:"facebook_url"`
	InstagramURL      sql.NullString      `db:"instagram_url"`
	YoutubeURL        sql.NullString      `db:"youtube_url"`
	TiktokURL         sql.NullString      `db:"tiktok_url"`
	LogoURL           sql.NullString      `db:"logo_url"`
	ServiceAreas      domain.ServiceAreas `db:"service_areas"`
	Notes             string              `db:"notes"`
	CreatedAt         time.Time           `db:"created_at"`
	UpdatedAt         time.Time           `db:"updated_at"`
}

const businessColumns = `id, slug, business_name, first_name, last_name, user_id,
	business_phone, personal_phone, business_email, personal_email, industry,
	application_status, application_date, approved_date, website_domain, gbp_url,
	facebook_url, instagram_url, youtube_url, tiktok_url, logo_url, service_areas,
	notes, created_at, updated_at`

// PostgresRepository stores tenants in tenants.business.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns a tenant repository backed by db.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EmailExists reports whether a user with email exists.
func (r *PostgresRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM auth.users WHERE email = $1)`, strings.ToLower(email))
	return exists, err
}

// SlugExists reports whether a business has slug.
func (r *PostgresRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM tenants.business WHERE slug = $1)`, slug)
	return exists, err
}

// CreateSignup inserts the user, the business and its content in one transaction.
// A concurrent insert of the same slug or email maps to ErrSlugTaken or ErrEmailTaken.
func (r *PostgresRepository) CreateSignup(ctx context.Context, s *Signup) error {
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := userrepo.CreateWith(ctx, tx, s.User); err != nil {
			return err
		}
		b := s.Business
		b.UserID = s.User.ID
		var approved sql.NullTime
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO tenants.business (
				slug, business_name, first_name, last_name, user_id,
				business_phone, personal_phone, business_email, personal_email,
				industry, application_status, approved_date, notes, service_areas)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
				CASE WHEN $11 = 'approved' THEN NOW() END, $12, $13::jsonb)
			RETURNING id, application_date, approved_date, created_at, updated_at`,
			b.Slug, b.BusinessName, b.FirstName, b.LastName, b.UserID,
			b.BusinessPhone, b.PersonalPhone, b.BusinessEmail, b.PersonalEmail,
			b.Industry, b.ApplicationStatus, b.Notes, b.ServiceAreas,
		).Scan(&b.ID, &b.ApplicationDate, &approved, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return err
		}
		if approved.Valid {
			b.ApprovedDate = &approved.Time
		}
		s.Content.BusinessID = b.ID
		saved, err := contentrepo.UpsertWith(ctx, tx, s.Content)
		if err != nil {
			return err
		}
		s.Content = saved
		return nil
	})
	if name, ok := db.UniqueViolation(err); ok {
		switch {
		case strings.Contains(name, "slug"):
			return ErrSlugTaken
		case strings.Contains(name, "email"):
			return ErrEmailTaken
		}
	}
	return err
}

// GetApprovedBySlug returns the approved tenant with its content, or nil.
func (r *PostgresRepository) GetApprovedBySlug(ctx context.Context, slug string) (*domain.Detail, error) {
	b, err := r.getOne(ctx, `SELECT `+businessColumns+` FROM tenants.business
		WHERE slug = $1 AND application_status = 'approved'`, slug)
	if err != nil || b == nil {
		return nil, err
	}
	c, err := contentrepo.GetByBusinessID(ctx, r.db, b.ID)
	if err != nil {
		return nil, err
	}
	return &domain.Detail{Business: b, Content: c}, nil
}

// GetApprovedByDomain matches website_domain case-insensitively, ignoring a leading "www.".
func (r *PostgresRepository) GetApprovedByDomain(ctx context.Context, host string) (*domain.Business, error) {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	return r.getOne(ctx, `SELECT `+businessColumns+` FROM tenants.business
		WHERE application_status = 'approved'
		  AND regexp_replace(lower(website_domain), '^www\.', '') = $1
		LIMIT 1`, host)
}

// List returns tenants with status, optionally filtered by industry, newest first.
func (r *PostgresRepository) List(ctx context.Context, status, industry string) ([]*domain.Business, error) {
	query := `SELECT ` + businessColumns + ` FROM tenants.business WHERE application_status = $1`
	args := []interface{}{status}
	if industry != "" {
		query += ` AND industry = $2`
		args = append(args, industry)
	}
	query += ` ORDER BY created_at DESC`
	var rows []businessRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]*domain.Business, 0, len(rows))
	for i := range rows {
		out = append(out, rowToDomain(&rows[i]))
	}
	return out, nil
}

// Industries counts approved tenants per industry, largest first.
func (r *PostgresRepository) Industries(ctx context.Context) ([]domain.IndustryCount, error) {
	var out []domain.IndustryCount
	err := r.db.SelectContext(ctx, &out, `
		SELECT industry, COUNT(*) AS count
		FROM tenants.business
		WHERE application_status = 'approved' AND industry <> ''
		GROUP BY industry
		ORDER BY count DESC, industry`)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.IndustryCount{}
	}
	return out, nil
}

// Slugs returns slug and display name of approved tenants ordered by name.
func (r *PostgresRepository) Slugs(ctx context.Context) ([]domain.SlugName, error) {
	out := []domain.SlugName{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT slug, COALESCE(NULLIF(business_name, ''), slug) AS name
		FROM tenants.business
		WHERE application_status = 'approved'
		ORDER BY name, slug`)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// OwnerOf returns the user_id of slug.
func (r *PostgresRepository) OwnerOf(ctx context.Context, slug string) (string, bool, error) {
	var owner sql.NullString
	err := r.db.GetContext(ctx, &owner, `SELECT user_id FROM tenants.business WHERE slug = $1`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return owner.String, true, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...interface{}) (*domain.Business, error) {
	var row businessRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rowToDomain(&row), nil
}

func rowToDomain(r *businessRow) *domain.Business {
	b := &domain.Business{
		ID:                r.ID,
		Slug:              r.Slug,
		BusinessName:      r.BusinessName,
		FirstName:         r.FirstName,
		LastName:          r.LastName,
		UserID:            r.UserID.String,
		BusinessPhone:     r.BusinessPhone,
		PersonalPhone:     r.PersonalPhone,
		BusinessEmail:     r.BusinessEmail,
		PersonalEmail:     r.PersonalEmail,
		Industry:          r.Industry,
		ApplicationStatus: r.ApplicationStatus,
		ApplicationDate:   r.ApplicationDate,
		WebsiteDomain:     r.WebsiteDomain.String,
		GBPURL:            r.GBPURL.String,
		FacebookURL:       r.FacebookURL.String,
		InstagramURL:      r.InstagramURL.String,
		YoutubeURL:        r.YoutubeURL.String,
		TiktokURL:         r.TiktokURL.String,
		LogoURL:           r.LogoURL.String,
		ServiceAreas:      r.ServiceAreas,
		Notes:             r.Notes,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	if r.ApprovedDate.Valid {
		t := r.ApprovedDate.Time
		b.ApprovedDate = &t
	}
	if b.ServiceAreas == nil {
		b.ServiceAreas = domain.ServiceAreas{}
	}
	return b
}
