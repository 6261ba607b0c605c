// Package service assembles the tenant dashboard from the review aggregates.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"thatsmartsite/backend/internal/dashboard/domain"
	"thatsmartsite/backend/internal/dashboard/repository"
	reviewdomain "thatsmartsite/backend/internal/review/domain"
)

// ErrNotFound is returned when the slug names no approved tenant.
var ErrNotFound = errors.New("tenant not found or not approved")

// dashboardRecent caps the recent reviews embedded in the full dashboard.
const dashboardRecent = 10

// activityItems is the length of the activity feed.
const activityItems = 5

// ReviewsPage is the review analytics block with one page of recent reviews.
type ReviewsPage struct {
	domain.ReviewStats
	Pagination reviewdomain.Page `json:"pagination"`
}

// Service builds dashboard payloads.
type Service struct {
	repo repository.Repository
	now  func() time.Time
	log  *zap.Logger
}

// NewService returns a Service over repo.
func NewService(repo repository.Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, now: time.Now, log: log}
}

// Overview returns the headline block for slug over the window r.
func (s *Service) Overview(ctx context.Context, slug string, r domain.DateRange) (*domain.Overview, error) {
	o, err := s.repo.Overview(ctx, slug, r.Since(s.now()))
	if err != nil {
		return nil, fmt.Errorf("dashboard overview: %w", err)
	}
	if o == nil {
		return nil, ErrNotFound
	}
	o.ReviewTrend = domain.ReviewTrend(o.RecentReviews, o.TotalReviews)
	return o, nil
}

// Dashboard returns every block for slug. The aggregates are read concurrently.
func (s *Service) Dashboard(ctx context.Context, slug string, r domain.DateRange) (*domain.Dashboard, error) {
	o, err := s.Overview(ctx, slug, r)
	if err != nil {
		return nil, err
	}
	now := s.now()
	stats, _, err := s.reviewStats(ctx, slug, r.Since(now), dashboardRecent, 0)
	if err != nil {
		return nil, err
	}
	d := &domain.Dashboard{
		Tenant:   domain.TenantInfo{ID: o.ID, Slug: o.Slug, DateRange: r, GeneratedAt: now.UTC()},
		Overview: *o,
		Reviews:  stats,
		Activity: domain.ActivityFromReviews(stats.RecentReviews, activityItems),
		Summary:  domain.Summarize(*o),
	}
	s.log.Debug("dashboard built", zap.String("slug", slug), zap.String("date_range", string(r)), zap.Int("total_reviews", o.TotalReviews))
	return d, nil
}

// Reviews returns the review analytics for slug with one page of recent reviews.
func (s *Service) Reviews(ctx context.Context, slug string, r domain.DateRange, limit, offset int) (*ReviewsPage, error) {
	if _, err := s.Overview(ctx, slug, r); err != nil {
		return nil, err
	}
	limit, offset = reviewdomain.ClampPage(limit, offset)
	stats, total, err := s.reviewStats(ctx, slug, r.Since(s.now()), limit, offset)
	if err != nil {
		return nil, err
	}
	return &ReviewsPage{ReviewStats: stats, Pagination: reviewdomain.NewPage(total, limit, offset)}, nil
}

func (s *Service) reviewStats(ctx context.Context, slug string, since time.Time, limit, offset int) (domain.ReviewStats, int, error) {
	var (
		stats domain.ReviewStats
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.Distribution, err = s.repo.Distribution(gctx, slug)
		return err
	})
	g.Go(func() error {
		var err error
		stats.Sources, err = s.repo.Sources(gctx, slug)
		return err
	})
	g.Go(func() error {
		var err error
		stats.RecentReviews, total, err = s.repo.Recent(gctx, slug, since, limit, offset)
		return err
	})
	g.Go(func() error {
		var err error
		stats.Trends, err = s.repo.Trends(gctx, slug, since)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.ReviewStats{}, 0, fmt.Errorf("dashboard review stats: %w", err)
	}
	if stats.Distribution == nil {
		stats.Distribution = []domain.RatingCount{}
	}
	if stats.Sources == nil {
		stats.Sources = []domain.SourceCount{}
	}
	if stats.RecentReviews == nil {
		stats.RecentReviews = []domain.RecentReview{}
	}
	if stats.Trends == nil {
		stats.Trends = []domain.MonthTrend{}
	}
	return stats, total, nil
}
