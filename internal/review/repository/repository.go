package repository

import (
	"context"

	"thatsmartsite/backend/internal/review/domain"
)

// Repository defines persistence for reviews and votes. Lookups of missing rows return nil or found=false.
type Repository interface {
	Create(ctx context.Context, r *domain.Review) (*domain.Review, error)
	Get(ctx context.Context, id int64) (*domain.Review, error)
	ListByTenant(ctx context.Context, slug string, limit, offset int) ([]*domain.Review, int, error)
	Update(ctx context.Context, id int64, in domain.UpdateInput) (*domain.Review, error)
	Delete(ctx context.Context, id int64) (bool, error)
	SetAvatar(ctx context.Context, id int64, filename string) (bool, error)
	// Vote records the voter's vote (one per IP, replacing an earlier one) and recounts the review totals.
	Vote(ctx context.Context, id int64, voterIP, voteType string) (domain.VoteCounts, bool, error)
	// GBP returns the business name and stored gbp_url of slug.
	GBP(ctx context.Context, slug string) (businessName, gbpURL string, found bool, err error)
}
