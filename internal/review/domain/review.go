// Package domain holds customer reviews, votes and their validation rules.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"thatsmartsite/backend/internal/platform/validate"
)

var (
	ErrNotFound        = errors.New("review not found")
	ErrNothingToUpdate = errors.New("no valid fields to update")
)

// Accepted vehicle types and sources.
var (
	VehicleTypes = []string{"car", "truck", "suv", "boat", "rv", "motorcycle"}
	Sources      = []string{"website", "google", "yelp", "facebook"}
	Statuses     = []string{"approved", "pending", "hidden"}
)

// DefaultSource is stored when a review names none.
const DefaultSource = "website"

// Field limits.
const (
	MaxNameLength    = 255
	MaxCommentLength = 5000
)

// Review is one row of reputation.reviews.
type Review struct {
	ID                  int64     `db:"id" json:"id"`
	TenantSlug          string    `db:"tenant_slug" json:"tenant_slug"`
	CustomerName        string    `db:"customer_name" json:"customer_name"`
	Rating              int       `db:"rating" json:"rating"`
	Comment             string    `db:"comment" json:"comment"`
	ReviewerURL         string    `db:"reviewer_url" json:"reviewer_url,omitempty"`
	VehicleType         string    `db:"vehicle_type" json:"vehicle_type,omitempty"`
	PaintCorrection     bool      `db:"paint_correction" json:"paint_correction"`
	CeramicCoating      bool      `db:"ceramic_coating" json:"ceramic_coating"`
	PaintProtectionFilm bool      `db:"paint_protection_film" json:"paint_protection_film"`
	Source              string    `db:"source" json:"source"`
	AvatarFilename      string    `db:"avatar_filename" json:"avatar_filename,omitempty"`
	IsVerified          bool      `db:"is_verified" json:"is_verified"`
	HelpfulVotes        int       `db:"helpful_votes" json:"helpful_votes"`
	TotalVotes          int       `db:"total_votes" json:"total_votes"`
	Status              string    `db:"status" json:"status"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// CreateInput is the body of POST /api/tenant-reviews.
type CreateInput struct {
	TenantSlug          string `json:"tenant_slug"`
	CustomerName        string `json:"customer_name"`
	Rating              int    `json:"rating"`
	Comment             string `json:"comment"`
	ReviewerURL         string `json:"reviewer_url"`
	VehicleType         string `json:"vehicle_type"`
	PaintCorrection     bool   `json:"paint_correction"`
	CeramicCoating      bool   `json:"ceramic_coating"`
	PaintProtectionFilm bool   `json:"paint_protection_film"`
	Source              string `json:"source"`
	AvatarFilename      string `json:"avatar_filename"`
}

// NewReview validates in and returns the review to insert.
func NewReview(in CreateInput) (*Review, error) {
	r := &Review{
		TenantSlug:          strings.TrimSpace(in.TenantSlug),
		CustomerName:        strings.TrimSpace(in.CustomerName),
		Rating:              in.Rating,
		Comment:             strings.TrimSpace(in.Comment),
		ReviewerURL:         strings.TrimSpace(in.ReviewerURL),
		VehicleType:         strings.ToLower(strings.TrimSpace(in.VehicleType)),
		PaintCorrection:     in.PaintCorrection,
		CeramicCoating:      in.CeramicCoating,
		PaintProtectionFilm: in.PaintProtectionFilm,
		Source:              strings.ToLower(strings.TrimSpace(in.Source)),
		AvatarFilename:      strings.TrimSpace(in.AvatarFilename),
		Status:              "approved",
	}
	if r.TenantSlug == "" || r.CustomerName == "" || r.Rating == 0 || r.Comment == "" {
		return nil, validate.New("review", "Missing required fields: tenant_slug, customer_name, rating, comment")
	}
	if r.Source == "" {
		r.Source = DefaultSource
	}
	if err := checkFields(&r.CustomerName, &r.Rating, &r.Comment, &r.VehicleType, &r.Source, nil); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateInput is a partial update. Nil fields are left unchanged.
type UpdateInput struct {
	CustomerName        *string `json:"customer_name"`
	Rating              *int    `json:"rating"`
	Comment             *string `json:"comment"`
	ReviewerURL         *string `json:"reviewer_url"`
	VehicleType         *string `json:"vehicle_type"`
	PaintCorrection     *bool   `json:"paint_correction"`
	CeramicCoating      *bool   `json:"ceramic_coating"`
	PaintProtectionFilm *bool   `json:"paint_protection_film"`
	Source              *string `json:"source"`
	IsVerified          *bool   `json:"is_verified"`
	Status              *string `json:"status"`
}

// Empty reports whether no field is set.
func (u UpdateInput) Empty() bool {
	return u.CustomerName == nil && u.Rating == nil && u.Comment == nil && u.ReviewerURL == nil &&
		u.VehicleType == nil && u.PaintCorrection == nil && u.CeramicCoating == nil &&
		u.PaintProtectionFilm == nil && u.Source == nil && u.IsVerified == nil && u.Status == nil
}

// Validate normalizes the set fields and checks them.
func (u *UpdateInput) Validate() error {
	if u.Empty() {
		return ErrNothingToUpdate
	}
	for _, p := range []*string{u.CustomerName, u.Comment, u.ReviewerURL} {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
	for _, p := range []*string{u.VehicleType, u.Source, u.Status} {
		if p != nil {
			*p = strings.ToLower(strings.TrimSpace(*p))
		}
	}
	if u.CustomerName != nil && *u.CustomerName == "" {
		return validate.New("customer_name", "customer_name cannot be empty")
	}
	if u.Comment != nil && *u.Comment == "" {
		return validate.New("comment", "comment cannot be empty")
	}
	if u.Source != nil && *u.Source == "" {
		return validate.New("source", fmt.Sprintf("Invalid source. Must be one of: %s", strings.Join(Sources, ", ")))
	}
	return checkFields(u.CustomerName, u.Rating, u.Comment, u.VehicleType, u.Source, u.Status)
}

func checkFields(name *string, rating *int, comment, vehicle, source, status *string) error {
	if name != nil && utf8.RuneCountInString(*name) > MaxNameLength {
		return validate.New("customer_name", fmt.Sprintf("customer_name must be at most %d characters", MaxNameLength))
	}
	if rating != nil && (*rating < 1 || *rating > 5) {
		return validate.New("rating", "Rating must be between 1 and 5")
	}
	if comment != nil && utf8.RuneCountInString(*comment) > MaxCommentLength {
		return validate.New("comment", fmt.Sprintf("comment must be at most %d characters", MaxCommentLength))
	}
	if vehicle != nil && *vehicle != "" && !contains(VehicleTypes, *vehicle) {
		return validate.New("vehicle_type", fmt.Sprintf("Invalid vehicle type. Must be one of: %s", strings.Join(VehicleTypes, ", ")))
	}
	if source != nil && *source != "" && !contains(Sources, *source) {
		return validate.New("source", fmt.Sprintf("Invalid source. Must be one of: %s", strings.Join(Sources, ", ")))
	}
	if status != nil && !contains(Statuses, *status) {
		return validate.New("status", fmt.Sprintf("Invalid status. Must be one of: %s", strings.Join(Statuses, ", ")))
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
