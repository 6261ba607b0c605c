package repository

import (
	"context"

	"thatsmartsite/backend/internal/websitecontent/domain"
)

// Repository defines persistence for website content.
type Repository interface {
	// GetBySlug resolves the business id of slug and its content row.
	// found is false when no business has the slug; content is nil when the business has no row.
	GetBySlug(ctx context.Context, slug string) (businessID int64, content *domain.Content, found bool, err error)
	// Upsert inserts or replaces the row of c.BusinessID and returns the stored row.
	Upsert(ctx context.Context, c *domain.Content) (*domain.Content, error)
}
