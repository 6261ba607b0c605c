package repository

import (
	"context"
	"errors"

	"thatsmartsite/backend/internal/tenant/domain"
	userdomain "thatsmartsite/backend/internal/user/domain"
	contentdomain "thatsmartsite/backend/internal/websitecontent/domain"
)

var (
	// ErrSlugTaken is returned by CreateSignup when the business slug already exists.
	ErrSlugTaken = errors.New("slug already taken")
	// ErrEmailTaken is returned by CreateSignup when the user email already exists.
	ErrEmailTaken = errors.New("email already taken")
)

// Signup is everything inserted by one signup. IDs are written back on success.
type Signup struct {
	User     *userdomain.User
	Business *domain.Business
	Content  *contentdomain.Content
}

// Repository defines persistence for tenants.
type Repository interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	// CreateSignup inserts user, business and content in one transaction.
	CreateSignup(ctx context.Context, s *Signup) error
	// GetApprovedBySlug returns the approved tenant with its content, or nil.
	GetApprovedBySlug(ctx context.Context, slug string) (*domain.Detail, error)
	// GetApprovedByDomain returns the approved tenant whose website_domain is host, or nil.
	GetApprovedByDomain(ctx context.Context, host string) (*domain.Business, error)
	List(ctx context.Context, status, industry string) ([]*domain.Business, error)
	Industries(ctx context.Context) ([]domain.IndustryCount, error)
	// Slugs lists approved tenants by name.
	Slugs(ctx context.Context) ([]domain.SlugName, error)
	// OwnerOf returns the owning user id of slug. found is false when no business has the slug.
	OwnerOf(ctx context.Context, slug string) (ownerID string, found bool, err error)
}
