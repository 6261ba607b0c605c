package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"thatsmartsite/backend/internal/dashboard/domain"
	"thatsmartsite/backend/internal/dashboard/service"
	"thatsmartsite/backend/internal/platform/rbac"
	"thatsmartsite/backend/internal/platform/respond"
)

type memRepo struct{}

func (memRepo) Overview(_ context.Context, slug string, _ time.Time) (*domain.Overview, error) {
	if slug != "acme" {
		return nil, nil
	}
	return &domain.Overview{ID: 1, Slug: "acme", TotalReviews: 2, RecentReviews: 1, AverageRating: 4}, nil
}

func (memRepo) Distribution(context.Context, string) ([]domain.RatingCount, error) { return nil, nil }
func (memRepo) Sources(context.Context, string) ([]domain.SourceCount, error)      { return nil, nil }
func (memRepo) Trends(context.Context, string, time.Time) ([]domain.MonthTrend, error) {
	return nil, nil
}

func (memRepo) Recent(context.Context, string, time.Time, int, int) ([]domain.RecentReview, int, error) {
	return []domain.RecentReview{{ID: 9, Rating: 4}}, 1, nil
}

type stubAccess struct {
	err    error
	action string
}

func (s *stubAccess) Check(_ context.Context, _ string, action string) (string, error) {
	s.action = action
	return "user-1", s.err
}

func newRouter(access AccessChecker) *mux.Router {
	h := NewHandler(service.NewService(memRepo{}, nil), access, nil)
	r := mux.NewRouter()
	r.HandleFunc("/api/tenants/{slug}/dashboard", h.Dashboard).Methods(http.MethodGet)
	r.HandleFunc("/api/tenants/{slug}/dashboard/overview", h.Overview).Methods(http.MethodGet)
	r.HandleFunc("/api/tenants/{slug}/dashboard/reviews", h.Reviews).Methods(http.MethodGet)
	return r
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandler_Statuses(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		access   error
		wantCode int
		wantErr  respond.Code
	}{
		{"dashboard", "/api/tenants/acme/dashboard", nil, http.StatusOK, ""},
		{"overview", "/api/tenants/acme/dashboard/overview?dateRange=7d", nil, http.StatusOK, ""},
		{"reviews", "/api/tenants/acme/dashboard/reviews?limit=5", nil, http.StatusOK, ""},
		{"bad range", "/api/tenants/acme/dashboard?dateRange=2w", nil, http.StatusBadRequest, respond.CodeInvalidDateRange},
		{"anonymous", "/api/tenants/acme/dashboard", rbac.ErrUnauthenticated, http.StatusUnauthorized, respond.CodeNoToken},
		{"not owner", "/api/tenants/acme/dashboard", rbac.ErrForbidden, http.StatusForbidden, respond.CodeForbidden},
		{"unknown tenant", "/api/tenants/acme/dashboard", rbac.ErrTenantNotFound, http.StatusNotFound, respond.CodeTenantNotFound},
		{"not approved", "/api/tenants/pending/dashboard", nil, http.StatusNotFound, respond.CodeTenantNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			access := &stubAccess{err: tt.access}
			rec := get(newRouter(access), tt.target)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d; body %s", rec.Code, tt.wantCode, rec.Body)
			}
			if access.action != "dashboard.read" {
				t.Errorf("action = %q, want dashboard.read", access.action)
			}
			if tt.wantErr == "" {
				return
			}
			var body respond.ErrorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if body.Code != tt.wantErr {
				t.Errorf("code = %q, want %q", body.Code, tt.wantErr)
			}
		})
	}
}

func TestHandler_ReviewsBody(t *testing.T) {
	rec := get(newRouter(&stubAccess{}), "/api/tenants/acme/dashboard/reviews?limit=5&offset=0")
	var body struct {
		Success bool `json:"success"`
		Data    struct {
			RecentReviews []domain.RecentReview `json:"recentReviews"`
			Pagination    struct {
				Total   int  `json:"total"`
				Limit   int  `json:"limit"`
				HasMore bool `json:"hasMore"`
			} `json:"pagination"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !body.Success || len(body.Data.RecentReviews) != 1 || body.Data.Pagination.Total != 1 || body.Data.Pagination.Limit != 5 {
		t.Errorf("body = %+v", body)
	}
}
