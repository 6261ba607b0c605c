package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"thatsmartsite/backend/internal/platform/respond"
	"thatsmartsite/backend/internal/security"
)

type stubValidator struct {
	id  security.Identity
	err error
}

func (s stubValidator) ValidateAccess(string) (security.Identity, error) { return s.id, s.err }

func identityEcho(t *testing.T, got *security.Identity) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got, _ = GetIdentity(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) respond.ErrorBody {
	t.Helper()
	var body respond.ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal error body: %v", err)
	}
	return body
}

func TestAuthRequire_ValidBearer(t *testing.T) {
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	token, _, _, err := tokens.IssueAccess(security.Identity{UserID: "user-1", SessionID: "session-1", Email: "a@b.com"})
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	var got security.Identity
	h := NewAuth(tokens, nil).Require(identityEcho(t, &got))
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got.UserID != "user-1" || got.SessionID != "session-1" {
		t.Errorf("identity = %+v", got)
	}
}

func TestAuthRequire_CookieWinsOverHeader(t *testing.T) {
	var seen string
	v := validatorFunc(func(token string) (security.Identity, error) {
		seen = token
		return security.Identity{UserID: "u"}, nil
	})
	var got security.Identity
	h := NewAuth(v, nil).Require(identityEcho(t, &got))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "from-cookie"})
	req.Header.Set("Authorization", "Bearer from-header")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "from-cookie" {
		t.Errorf("validated token = %q, want from-cookie", seen)
	}
}

type validatorFunc func(string) (security.Identity, error)

func (f validatorFunc) ValidateAccess(token string) (security.Identity, error) { return f(token) }

func TestAuthRequire_Errors(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		validator  stubValidator
		wantStatus int
		wantCode   respond.Code
	}{
		{"missing", "", stubValidator{}, http.StatusUnauthorized, respond.CodeNoToken},
		{"malformed header", "Token abc", stubValidator{}, http.StatusUnauthorized, respond.CodeNoToken},
		{"expired", "Bearer t", stubValidator{err: security.ErrTokenExpired}, http.StatusUnauthorized, respond.CodeTokenExpired},
		{"invalid", "Bearer t", stubValidator{err: security.ErrInvalidToken}, http.StatusForbidden, respond.CodeInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := NewAuth(tt.validator, nil).Require(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if called {
				t.Error("next handler called")
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if body := decodeError(t, rec); body.Code != tt.wantCode || body.Success {
				t.Errorf("body = %+v, want code %s", body, tt.wantCode)
			}
		})
	}
}

func TestAuthOptional(t *testing.T) {
	var got security.Identity
	h := NewAuth(stubValidator{err: security.ErrInvalidToken}, nil).Optional(identityEcho(t, &got))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || got.UserID != "" {
		t.Errorf("status = %d identity = %+v, want 200 and anonymous", rec.Code, got)
	}

	h = NewAuth(stubValidator{id: security.Identity{UserID: "u-1"}}, nil).Optional(identityEcho(t, &got))
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got.UserID != "u-1" {
		t.Errorf("UserID = %q, want u-1", got.UserID)
	}
}

func TestRequireAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	tests := []struct {
		name       string
		id         *security.Identity
		wantStatus int
	}{
		{"admin", &security.Identity{UserID: "u", IsAdmin: true}, http.StatusOK},
		{"not admin", &security.Identity{UserID: "u"}, http.StatusForbidden},
		{"anonymous", nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin", nil)
			if tt.id != nil {
				req = req.WithContext(WithIdentity(req.Context(), *tt.id))
			}
			rec := httptest.NewRecorder()
			RequireAdmin(ok).ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusForbidden {
				if body := decodeError(t, rec); body.Code != respond.CodeInsufficientPrivileges {
					t.Errorf("code = %s, want %s", body.Code, respond.CodeInsufficientPrivileges)
				}
			}
		})
	}
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer   abc  ", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", tt.header)
		if got := ExtractToken(req); got != tt.want {
			t.Errorf("ExtractToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
