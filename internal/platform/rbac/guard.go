package rbac

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"thatsmartsite/backend/internal/platform/respond"
	"thatsmartsite/backend/internal/policy/engine"
)

// Guard binds an evaluator and an owner lookup for handlers.
type Guard struct {
	evaluator engine.Evaluator
	owners    OwnerLookup
}

// NewGuard returns a Guard.
func NewGuard(evaluator engine.Evaluator, owners OwnerLookup) *Guard {
	return &Guard{evaluator: evaluator, owners: owners}
}

// Check runs RequireTenantAccess for the caller in ctx.
func (g *Guard) Check(ctx context.Context, slug, action string) (string, error) {
	return RequireTenantAccess(ctx, g.evaluator, g.owners, slug, action)
}

// WriteError maps a Check error onto the HTTP error envelope.
func WriteError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		respond.Error(w, http.StatusUnauthorized, respond.CodeNoToken, "Access token required")
	case errors.Is(err, ErrForbidden):
		respond.Error(w, http.StatusForbidden, respond.CodeForbidden, "You do not have access to this tenant")
	case errors.Is(err, ErrTenantNotFound):
		respond.Error(w, http.StatusNotFound, respond.CodeTenantNotFound, "Tenant not found")
	default:
		log.Error("rbac: access check failed", zap.Error(err))
		respond.Internal(w)
	}
}
