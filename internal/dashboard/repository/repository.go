// Package repository reads the aggregates behind the tenant dashboard.
package repository

import (
	"context"
	"time"

	"thatsmartsite/backend/internal/dashboard/domain"
)

// Repository is read-only. Every method is scoped to one tenant slug.
type Repository interface {
	// Overview returns headline counts for an approved tenant; nil when the slug is unknown or not approved.
	Overview(ctx context.Context, slug string, since time.Time) (*domain.Overview, error)
	Distribution(ctx context.Context, slug string) ([]domain.RatingCount, error)
	Sources(ctx context.Context, slug string) ([]domain.SourceCount, error)
	// Recent returns reviews created at or after since, newest first, with their total count.
	Recent(ctx context.Context, slug string, since time.Time, limit, offset int) ([]domain.RecentReview, int, error)
	Trends(ctx context.Context, slug string, since time.Time) ([]domain.MonthTrend, error)
}
