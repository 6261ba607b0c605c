package service

import (
	"context"

	"thatsmartsite/backend/internal/server/middleware"
	"thatsmartsite/backend/internal/tenant/domain"
	"thatsmartsite/backend/internal/tenant/repository"
)

// Finder resolves approved tenants for the tenant middleware.
type Finder struct {
	repo repository.Repository
}

// NewFinder returns a Finder over repo.
func NewFinder(repo repository.Repository) *Finder {
	return &Finder{repo: repo}
}

// ApprovedBySlug implements middleware.TenantFinder.
func (f *Finder) ApprovedBySlug(ctx context.Context, slug string) (*middleware.ResolvedTenant, error) {
	d, err := f.repo.GetApprovedBySlug(ctx, slug)
	if err != nil || d == nil {
		return nil, err
	}
	return resolved(d.Business), nil
}

// ApprovedByDomain implements middleware.TenantFinder.
func (f *Finder) ApprovedByDomain(ctx context.Context, host string) (*middleware.ResolvedTenant, error) {
	b, err := f.repo.GetApprovedByDomain(ctx, host)
	if err != nil || b == nil {
		return nil, err
	}
	return resolved(b), nil
}

func resolved(b *domain.Business) *middleware.ResolvedTenant {
	return &middleware.ResolvedTenant{ID: b.ID, Slug: b.Slug, Name: b.BusinessName, Domain: b.WebsiteDomain}
}
