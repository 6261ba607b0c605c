package repository

import (
	"context"

	"thatsmartsite/backend/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	// ListByTenant returns the newest entries first. An empty tenantID lists across tenants.
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*domain.AuditLog, error)
}
