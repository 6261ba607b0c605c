// Package rbac guards tenant-scoped operations (dashboard, service areas, content, review moderation).
package rbac

import (
	"context"
	"errors"
	"fmt"

	"thatsmartsite/backend/internal/policy/engine"
	"thatsmartsite/backend/internal/server/middleware"
)

var (
	// ErrUnauthenticated is returned when the context carries no identity.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when the policy denies access.
	ErrForbidden = errors.New("access to this tenant is not allowed")
	// ErrTenantNotFound is returned when no business has the slug.
	ErrTenantNotFound = errors.New("tenant not found")
)

// OwnerLookup returns the owning user id of the business with slug; found is false when there is none.
type OwnerLookup interface {
	OwnerOf(ctx context.Context, slug string) (ownerID string, found bool, err error)
}

// RequireTenantAccess checks that the caller in ctx may perform action on the tenant slug.
// Returns the caller's user id on success. Policy evaluation failures deny.
func RequireTenantAccess(ctx context.Context, evaluator engine.Evaluator, owners OwnerLookup, slug, action string) (string, error) {
	id, ok := middleware.GetIdentity(ctx)
	if !ok {
		return "", ErrUnauthenticated
	}
	ownerID, found, err := owners.OwnerOf(ctx, slug)
	if err != nil {
		return "", fmt.Errorf("resolve tenant owner: %w", err)
	}
	if !found {
		return "", ErrTenantNotFound
	}
	allowed, err := evaluator.AllowTenantAccess(ctx, engine.AccessRequest{
		Subject: engine.Subject{UserID: id.UserID, IsAdmin: id.IsAdmin},
		Tenant:  engine.TenantResource{Slug: slug, OwnerID: ownerID},
		Action:  action,
	})
	if err != nil || !allowed {
		return "", ErrForbidden
	}
	return id.UserID, nil
}
