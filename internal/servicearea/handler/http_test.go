package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"thatsmartsite/backend/internal/platform/rbac"
	"thatsmartsite/backend/internal/servicearea/domain"
	"thatsmartsite/backend/internal/servicearea/repository"
	"thatsmartsite/backend/internal/servicearea/service"
)

type memRepo struct {
	areas     map[string][]domain.Area
	mutateErr error
}

func (m *memRepo) Get(_ context.Context, slug string) ([]domain.Area, bool, error) {
	a, ok := m.areas[slug]
	return a, ok, nil
}

func (m *memRepo) Mutate(_ context.Context, slug string, fn repository.MutateFunc) ([]domain.Area, bool, error) {
	cur, ok := m.areas[slug]
	if !ok {
		return nil, false, nil
	}
	if m.mutateErr != nil {
		return nil, true, m.mutateErr
	}
	next, err := fn(cur)
	if err != nil {
		return nil, true, err
	}
	m.areas[slug] = next
	return next, true, nil
}

func (m *memRepo) Lookup(_ context.Context, city, state, zip string) ([]string, error) {
	var out []string
	for slug, areas := range m.areas {
		for _, a := range areas {
			if a.Matches(city, state, zip) {
				out = append(out, slug)
				break
			}
		}
	}
	return out, nil
}

type stubAccess struct{ err error }

func (s stubAccess) Check(context.Context, string, string) (string, error) { return "user-1", s.err }

func newRouter(repo *memRepo, access AccessChecker) *mux.Router {
	h := NewHandler(service.NewService(repo, nil), access, nil)
	r := mux.NewRouter()
	r.HandleFunc("/api/affiliates/lookup", h.Lookup).Methods(http.MethodGet)
	r.HandleFunc("/api/affiliates/{slug}/service_areas", h.List).Methods(http.MethodGet)
	r.HandleFunc("/api/affiliates/{slug}/service_areas", h.Add).Methods(http.MethodPost)
	r.HandleFunc("/api/affiliates/{slug}/service_areas/primary", h.SetPrimary).Methods(http.MethodPut)
	r.HandleFunc("/api/affiliates/{slug}/service_areas/{city}/{state}", h.Remove).Methods(http.MethodDelete)
	r.HandleFunc("/api/affiliates/{slug}/locations", h.Locations).Methods(http.MethodGet)
	return r
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandler_AddAndDuplicate(t *testing.T) {
	repo := &memRepo{areas: map[string][]domain.Area{"acme": {}}}
	r := newRouter(repo, stubAccess{})

	rec := do(r, http.MethodPost, "/api/affiliates/acme/service_areas", `{"city":"San Diego","state":"CA","zip":92101}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body %s", rec.Code, rec.Body)
	}
	var body struct {
		Success bool          `json:"success"`
		Data    []domain.Area `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Data) != 1 || body.Data[0].Zip != "92101" || !body.Data[0].Primary {
		t.Errorf("data = %+v", body.Data)
	}

	rec = do(r, http.MethodPost, "/api/affiliates/acme/service_areas", `{"city":"san diego","state":"CA"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", rec.Code)
	}
}

func TestHandler_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name      string
		access    AccessChecker
		mutateErr error
		method    string
		target    string
		body      string
		want      int
	}{
		{"invalid state", stubAccess{}, nil, http.MethodPost, "/api/affiliates/acme/service_areas", `{"city":"X","state":"California"}`, http.StatusBadRequest},
		{"bad json", stubAccess{}, nil, http.MethodPost, "/api/affiliates/acme/service_areas", `{`, http.StatusBadRequest},
		{"forbidden", stubAccess{err: rbac.ErrForbidden}, nil, http.MethodPost, "/api/affiliates/acme/service_areas", `{"city":"X","state":"CA"}`, http.StatusForbidden},
		{"unauthenticated", stubAccess{err: rbac.ErrUnauthenticated}, nil, http.MethodDelete, "/api/affiliates/acme/service_areas/X/CA", "", http.StatusUnauthorized},
		{"unknown tenant", stubAccess{}, nil, http.MethodGet, "/api/affiliates/nope/service_areas", "", http.StatusNotFound},
		{"missing area", stubAccess{}, nil, http.MethodDelete, "/api/affiliates/acme/service_areas/Nowhere/CA", "", http.StatusNotFound},
		{"primary missing city", stubAccess{}, nil, http.MethodPut, "/api/affiliates/acme/service_areas/primary", `{"state":"CA"}`, http.StatusBadRequest},
		{"lookup without state", stubAccess{}, nil, http.MethodGet, "/api/affiliates/lookup?city=Austin", "", http.StatusBadRequest},
		{"lookup no match", stubAccess{}, nil, http.MethodGet, "/api/affiliates/lookup?city=Austin&state=TX", "", http.StatusNotFound},
		{"unreadable stored areas", stubAccess{}, repository.ErrMalformedAreas, http.MethodPost, "/api/affiliates/acme/service_areas", `{"city":"X","state":"CA"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &memRepo{areas: map[string][]domain.Area{"acme": {{City: "San Diego", State: "CA", Primary: true, Multiplier: 1}}}, mutateErr: tt.mutateErr}
			rec := do(newRouter(repo, tt.access), tt.method, tt.target, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d; body %s", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestHandler_RemoveEscapedCity(t *testing.T) {
	repo := &memRepo{areas: map[string][]domain.Area{"acme": {
		{City: "San Diego", State: "CA", Primary: true, Multiplier: 1},
		{City: "Austin", State: "TX", Multiplier: 1},
	}}}
	rec := do(newRouter(repo, stubAccess{}), http.MethodDelete, "/api/affiliates/acme/service_areas/San%20Diego/CA", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}
	if got := repo.areas["acme"]; len(got) != 1 || got[0].City != "Austin" || !got[0].Primary {
		t.Errorf("areas = %+v", got)
	}
}

func TestHandler_LookupAndLocations(t *testing.T) {
	repo := &memRepo{areas: map[string][]domain.Area{"acme": {
		{City: "San Diego", State: "CA", Primary: true, Multiplier: 1},
		{City: "Austin", State: "TX", Multiplier: 1},
	}}}
	r := newRouter(repo, stubAccess{})

	rec := do(r, http.MethodGet, "/api/affiliates/lookup?city=austin&state=tx", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("lookup status = %d", rec.Code)
	}
	var lookup struct {
		Data lookupResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &lookup); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if lookup.Data.Count != 1 || lookup.Data.Slugs[0] != "acme" {
		t.Errorf("lookup = %+v", lookup.Data)
	}

	rec = do(r, http.MethodGet, "/api/affiliates/acme/locations", "")
	var locations struct {
		Data []domain.StateGroup `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &locations); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(locations.Data) != 2 || locations.Data[0].State != "CA" || locations.Data[1].State != "TX" {
		t.Errorf("locations = %+v", locations.Data)
	}
}
