package engine

import "context"

// Subject is the signed-in caller.
type Subject struct {
	UserID  string
	IsAdmin bool
}

// TenantResource is the tenant being accessed.
type TenantResource struct {
	Slug    string
	OwnerID string
}

// AccessRequest is one tenant access decision.
type AccessRequest struct {
	Subject Subject
	Tenant  TenantResource
	// Action names the operation, e.g. "dashboard.read" or "service_areas.write".
	Action string
}

// Evaluator decides tenant access (dashboard, content and location management).
type Evaluator interface {
	AllowTenantAccess(ctx context.Context, req AccessRequest) (bool, error)
}
