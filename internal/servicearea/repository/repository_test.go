package repository

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"thatsmartsite/backend/internal/servicearea/domain"
)

func TestApply(t *testing.T) {
	austin := domain.Area{City: "Austin", State: "TX", Primary: true, Multiplier: 1}
	appendAustin := func(areas []domain.Area) ([]domain.Area, error) { return append(areas, austin), nil }

	tests := []struct {
		name    string
		raw     string
		want    []domain.Area
		wantRaw string
		wantErr error
	}{
		{"empty column", ``, []domain.Area{austin}, `[{"city":"Austin","state":"TX","primary":true,"minimum":0,"multiplier":1}]`, nil},
		{"null column", `null`, []domain.Area{austin}, `[{"city":"Austin","state":"TX","primary":true,"minimum":0,"multiplier":1}]`, nil},
		{"truncated json", `[{"city":"Round Rock","state":"TX"`, nil, "", ErrMalformedAreas},
		{"object instead of list", `{"city":"Round Rock"}`, nil, "", ErrMalformedAreas},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			got, raw, err := apply([]byte(tt.raw), func(areas []domain.Area) ([]domain.Area, error) {
				called = true
				return appendAustin(areas)
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if called {
					t.Error("mutation ran over unreadable stored areas")
				}
				if raw != nil {
					t.Errorf("encoded = %q, want nothing to write", raw)
				}
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("areas mismatch (-want +got):\n%s", diff)
			}
			if string(raw) != tt.wantRaw {
				t.Errorf("encoded = %s, want %s", raw, tt.wantRaw)
			}
		})
	}
}

func TestApplyMutationErrorWritesNothing(t *testing.T) {
	boom := errors.New("boom")
	_, raw, err := apply([]byte(`[]`), func([]domain.Area) ([]domain.Area, error) { return nil, boom })
	if !errors.Is(err, boom) || raw != nil {
		t.Errorf("apply = (%q, %v), want (nil, boom)", raw, err)
	}
}

func TestApplyEmptyResultEncodesList(t *testing.T) {
	_, raw, err := apply([]byte(`[{"city":"Austin","state":"TX"}]`), func([]domain.Area) ([]domain.Area, error) { return nil, nil })
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if string(raw) != "[]" {
		t.Errorf("encoded = %s, want []", raw)
	}
}
