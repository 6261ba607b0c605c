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
	"thatsmartsite/backend/internal/websitecontent/domain"
	"thatsmartsite/backend/internal/websitecontent/service"
)

type memRepo struct {
	content map[int64]*domain.Content
}

func (m *memRepo) GetBySlug(_ context.Context, slug string) (int64, *domain.Content, bool, error) {
	if slug != "acme" {
		return 0, nil, false, nil
	}
	return 1, m.content[1], true, nil
}

func (m *memRepo) Upsert(_ context.Context, c *domain.Content) (*domain.Content, error) {
	m.content[c.BusinessID] = c
	return c, nil
}

type stubAccess struct{ err error }

func (s stubAccess) Check(context.Context, string, string) (string, error) { return "user-1", s.err }

func newRouter(access AccessChecker) *mux.Router {
	h := NewHandler(service.NewService(&memRepo{content: map[int64]*domain.Content{}}, nil), access, nil)
	r := mux.NewRouter()
	r.HandleFunc("/api/website-content/{slug}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/api/website-content/{slug}", h.Save).Methods(http.MethodPut)
	return r
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestGetAndSave(t *testing.T) {
	r := newRouter(stubAccess{})

	rec := do(r, http.MethodGet, "/api/website-content/acme", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"faq_items":[]`) {
		t.Errorf("GET body = %s, want empty faq_items", rec.Body.String())
	}

	rec = do(r, http.MethodPut, "/api/website-content/acme", `{"hero_title":"Shine","faq_items":[{"question":"Q","answer":"A"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Success bool           `json:"success"`
		Message string         `json:"message"`
		Data    domain.Content `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Message != "Website content saved successfully" || body.Data.HeroTitle != "Shine" {
		t.Errorf("PUT body = %+v", body)
	}

	rec = do(r, http.MethodGet, "/api/website-content/acme", "")
	if !strings.Contains(rec.Body.String(), `"hero_title":"Shine"`) {
		t.Errorf("GET after PUT = %s", rec.Body.String())
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name   string
		access AccessChecker
		method string
		target string
		body   string
		want   int
	}{
		{"unknown tenant", stubAccess{}, http.MethodGet, "/api/website-content/nope", "", http.StatusNotFound},
		{"forbidden", stubAccess{err: rbac.ErrForbidden}, http.MethodPut, "/api/website-content/acme", `{}`, http.StatusForbidden},
		{"anonymous", stubAccess{err: rbac.ErrUnauthenticated}, http.MethodPut, "/api/website-content/acme", `{}`, http.StatusUnauthorized},
		{"bad json", stubAccess{}, http.MethodPut, "/api/website-content/acme", `{bad`, http.StatusBadRequest},
		{"too long", stubAccess{}, http.MethodPut, "/api/website-content/acme", `{"hero_title":"` + strings.Repeat("x", 300) + `"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(newRouter(tt.access), tt.method, tt.target, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}
