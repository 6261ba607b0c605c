package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"thatsmartsite/backend/internal/db"
	"thatsmartsite/backend/internal/review/domain"
)

const reviewColumns = `id, tenant_slug, customer_name, rating, comment,
	COALESCE(reviewer_url, '') AS reviewer_url, COALESCE(vehicle_type, '') AS vehicle_type,
	paint_correction, ceramic_coating, paint_protection_film, source,
	COALESCE(avatar_filename, '') AS avatar_filename, is_verified,
	helpful_votes, total_votes, status, created_at, updated_at`

// PostgresRepository stores reviews in reputation.reviews.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns a review repository backed by db.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts r, linking it to the business with the same slug when one exists.
func (p *PostgresRepository) Create(ctx context.Context, r *domain.Review) (*domain.Review, error) {
	var out domain.Review
	err := p.db.GetContext(ctx, &out, `
		INSERT INTO reputation.reviews (
			tenant_slug, business_id, customer_name, rating, comment, reviewer_url,
			vehicle_type, paint_correction, ceramic_coating, paint_protection_film,
			source, avatar_filename, status)
		VALUES ($1, (SELECT id FROM tenants.business WHERE slug = $1), $2, $3, $4, NULLIF($5, ''),
			NULLIF($6, ''), $7, $8, $9, $10, NULLIF($11, ''), $12)
		RETURNING `+reviewColumns,
		r.TenantSlug, r.CustomerName, r.Rating, r.Comment, r.ReviewerURL,
		r.VehicleType, r.PaintCorrection, r.CeramicCoating, r.PaintProtectionFilm,
		r.Source, r.AvatarFilename, r.Status)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Get returns the review, or nil.
func (p *PostgresRepository) Get(ctx context.Context, id int64) (*domain.Review, error) {
	var out domain.Review
	err := p.db.GetContext(ctx, &out, `SELECT `+reviewColumns+` FROM reputation.reviews WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListByTenant returns one page of the tenant's reviews, best rated and newest first, and the total count.
func (p *PostgresRepository) ListByTenant(ctx context.Context, slug string, limit, offset int) ([]*domain.Review, int, error) {
	var total int
	if err := p.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM reputation.reviews WHERE tenant_slug = $1`, slug); err != nil {
		return nil, 0, err
	}
	out := []*domain.Review{}
	err := p.db.SelectContext(ctx, &out, `
		SELECT `+reviewColumns+`
		FROM reputation.reviews
		WHERE tenant_slug = $1
		ORDER BY rating DESC, created_at DESC
		LIMIT $2 OFFSET $3`, slug, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update applies the set fields of in and returns the updated review, or nil when id is missing.
func (p *PostgresRepository) Update(ctx context.Context, id int64, in domain.UpdateInput) (*domain.Review, error) {
	var (
		sets []string
		args []interface{}
	)
	add := func(column string, v interface{}, nullable bool) {
		args = append(args, v)
		if nullable {
			sets = append(sets, fmt.Sprintf("%s = NULLIF($%d, '')", column, len(args)))
			return
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if in.CustomerName != nil {
		add("customer_name", *in.CustomerName, false)
	}
	if in.Rating != nil {
		add("rating", *in.Rating, false)
	}
	if in.Comment != nil {
		add("comment", *in.Comment, false)
	}
	if in.ReviewerURL != nil {
		add("reviewer_url", *in.ReviewerURL, true)
	}
	if in.VehicleType != nil {
		add("vehicle_type", *in.VehicleType, true)
	}
	if in.PaintCorrection != nil {
		add("paint_correction", *in.PaintCorrection, false)
	}
	if in.CeramicCoating != nil {
		add("ceramic_coating", *in.CeramicCoating, false)
	}
	if in.PaintProtectionFilm != nil {
		add("paint_protection_film", *in.PaintProtectionFilm, false)
	}
	if in.Source != nil {
		add("source", *in.Source, false)
	}
	if in.IsVerified != nil {
		add("is_verified", *in.IsVerified, false)
	}
	if in.Status != nil {
		add("status", *in.Status, false)
	}
	if len(sets) == 0 {
		return nil, domain.ErrNothingToUpdate
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE reputation.reviews SET %s, updated_at = NOW() WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), reviewColumns)
	var out domain.Review
	err := p.db.GetContext(ctx, &out, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes the review. Votes cascade.
func (p *PostgresRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM reputation.reviews WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SetAvatar stores the avatar filename of the review.
func (p *PostgresRepository) SetAvatar(ctx context.Context, id int64, filename string) (bool, error) {
	res, err := p.db.ExecContext(ctx,
		`UPDATE reputation.reviews SET avatar_filename = $2, updated_at = NOW() WHERE id = $1`, id, filename)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Vote upserts the vote keyed by (review, voter IP) and recounts the totals in one transaction.
func (p *PostgresRepository) Vote(ctx context.Context, id int64, voterIP, voteType string) (domain.VoteCounts, bool, error) {
	var (
		counts domain.VoteCounts
		found  bool
	)
	err := db.WithTx(ctx, p.db, func(tx *sqlx.Tx) error {
		var locked int64
		err := tx.GetContext(ctx, &locked, `SELECT id FROM reputation.reviews WHERE id = $1 FOR UPDATE`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO reputation.review_votes (review_id, voter_ip, vote_type)
			VALUES ($1, $2, $3)
			ON CONFLICT (review_id, voter_ip) DO UPDATE SET vote_type = EXCLUDED.vote_type`,
			id, voterIP, voteType); err != nil {
			return err
		}
		return tx.GetContext(ctx, &counts, `
			UPDATE reputation.reviews r
			SET helpful_votes = v.helpful, total_votes = v.total
			FROM (
				SELECT COUNT(*) FILTER (WHERE vote_type = 'helpful') AS helpful, COUNT(*) AS total
				FROM reputation.review_votes WHERE review_id = $1
			) v
			WHERE r.id = $1
			RETURNING r.helpful_votes, r.total_votes`, id)
	})
	return counts, found, err
}

// GBP returns the business name and Google Business Profile URL of slug.
func (p *PostgresRepository) GBP(ctx context.Context, slug string) (string, string, bool, error) {
	var row struct {
		BusinessName string         `db:"business_name"`
		GBPURL       sql.NullString `db:"gbp_url"`
	}
	err := p.db.GetContext(ctx, &row, `SELECT business_name, gbp_url FROM tenants.business WHERE slug = $1`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}
	return row.BusinessName, row.GBPURL.String, true, nil
}
