// Package service implements service area management and the affiliate lookup.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"thatsmartsite/backend/internal/platform/validate"
	"thatsmartsite/backend/internal/servicearea/domain"
	"thatsmartsite/backend/internal/servicearea/repository"
)

// ErrTenantNotFound is returned when no business has the slug.
var ErrTenantNotFound = errors.New("tenant not found")

// Service manages the service areas of a tenant.
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

// List returns the areas of slug.
func (s *Service) List(ctx context.Context, slug string) ([]domain.Area, error) {
	areas, found, err := s.repo.Get(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get service areas: %w", err)
	}
	if !found {
		return nil, ErrTenantNotFound
	}
	if areas == nil {
		areas = []domain.Area{}
	}
	return areas, nil
}

// Locations returns the areas of slug grouped by state.
func (s *Service) Locations(ctx context.Context, slug string) ([]domain.StateGroup, error) {
	areas, err := s.List(ctx, slug)
	if err != nil {
		return nil, err
	}
	return domain.GroupByState(areas), nil
}

// Add validates in and appends it. Returns the stored list.
func (s *Service) Add(ctx context.Context, slug string, in domain.Input) ([]domain.Area, error) {
	area, err := domain.NewArea(in)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, slug, func(areas []domain.Area) ([]domain.Area, error) {
		return domain.Add(areas, area)
	})
}

// Remove deletes the city/state area.
func (s *Service) Remove(ctx context.Context, slug, city, state string) ([]domain.Area, error) {
	return s.mutate(ctx, slug, func(areas []domain.Area) ([]domain.Area, error) {
		return domain.Remove(areas, city, state)
	})
}

// SetPrimary makes the city/state area the primary one.
func (s *Service) SetPrimary(ctx context.Context, slug, city, state string) ([]domain.Area, error) {
	if err := validate.Required("city", city, "state", state); err != nil {
		return nil, err
	}
	return s.mutate(ctx, slug, func(areas []domain.Area) ([]domain.Area, error) {
		return domain.SetPrimary(areas, city, state)
	})
}

// Lookup returns the slugs of approved tenants serving the location. city and state are required.
func (s *Service) Lookup(ctx context.Context, city, state, zip string) ([]string, error) {
	city, state = strings.TrimSpace(city), strings.TrimSpace(state)
	if err := validate.Required("city", city, "state", state); err != nil {
		return nil, err
	}
	slugs, err := s.repo.Lookup(ctx, city, state, zip)
	if err != nil {
		return nil, fmt.Errorf("lookup service areas: %w", err)
	}
	return slugs, nil
}

func (s *Service) mutate(ctx context.Context, slug string, fn repository.MutateFunc) ([]domain.Area, error) {
	areas, found, err := s.repo.Mutate(ctx, slug, fn)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicate) || errors.Is(err, domain.ErrNotFound) || errors.Is(err, repository.ErrMalformedAreas) {
			return nil, err
		}
		return nil, fmt.Errorf("update service areas: %w", err)
	}
	if !found {
		return nil, ErrTenantNotFound
	}
	return areas, nil
}
