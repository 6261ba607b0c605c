// Package service reads and saves tenant website content.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"thatsmartsite/backend/internal/websitecontent/domain"
	"thatsmartsite/backend/internal/websitecontent/repository"
)

// ErrTenantNotFound is returned when no business has the slug.
var ErrTenantNotFound = errors.New("tenant not found")

// Service serves website content.
type Service struct {
	repo repository.Repository
	log  *zap.Logger
}

// NewService returns a Service over repo.
func NewService(repo repository.Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, log: log}
}

// Get returns the content of slug, or empty content when the tenant has none stored.
func (s *Service) Get(ctx context.Context, slug string) (*domain.Content, error) {
	businessID, c, found, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get website content: %w", err)
	}
	if !found {
		return nil, ErrTenantNotFound
	}
	if c == nil {
		return domain.Empty(businessID), nil
	}
	if c.FAQItems == nil {
		c.FAQItems = domain.FAQItems{}
	}
	return c, nil
}

// Save validates c and upserts it as the content of slug.
func (s *Service) Save(ctx context.Context, slug string, c domain.Content) (*domain.Content, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	businessID, _, found, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get website content: %w", err)
	}
	if !found {
		return nil, ErrTenantNotFound
	}
	c.BusinessID = businessID
	if c.FAQItems == nil {
		c.FAQItems = domain.FAQItems{}
	}
	saved, err := s.repo.Upsert(ctx, &c)
	if err != nil {
		return nil, fmt.Errorf("save website content: %w", err)
	}
	s.log.Info("website content saved", zap.String("slug", slug), zap.Int64("business_id", businessID))
	return saved, nil
}
