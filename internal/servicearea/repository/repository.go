package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"thatsmartsite/backend/internal/servicearea/domain"
)

// ErrMalformedAreas is returned by Mutate when the stored areas cannot be decoded.
// The stored value is left untouched.
var ErrMalformedAreas = errors.New("stored service areas are malformed")

// MutateFunc receives the current areas and returns the areas to store.
type MutateFunc func(areas []domain.Area) ([]domain.Area, error)

// Repository defines persistence for the service areas of a business.
type Repository interface {
	// Get returns the areas of slug; found is false when no business has the slug.
	Get(ctx context.Context, slug string) (areas []domain.Area, found bool, err error)
	// Mutate applies fn to the stored areas under a row lock and stores the result.
	Mutate(ctx context.Context, slug string, fn MutateFunc) (areas []domain.Area, found bool, err error)
	// Lookup returns the slugs of approved businesses serving city/state (and zip, when given).
	Lookup(ctx context.Context, city, state, zip string) ([]string, error)
}

// apply decodes raw strictly, runs fn and encodes the result for storage.
func apply(raw []byte, fn MutateFunc) ([]domain.Area, []byte, error) {
	cur, err := domain.Parse(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedAreas, err)
	}
	next, err := fn(cur)
	if err != nil {
		return nil, nil, err
	}
	if next == nil {
		next = []domain.Area{}
	}
	encoded, err := json.Marshal(next)
	if err != nil {
		return nil, nil, err
	}
	return next, encoded, nil
}
