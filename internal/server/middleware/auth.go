package middleware

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"thatsmartsite/backend/internal/platform/respond"
	"thatsmartsite/backend/internal/security"
)

// AccessTokenCookie and RefreshTokenCookie are the HttpOnly cookies set on login and refresh.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

const bearerPrefix = "bearer "

// AccessValidator validates access tokens. *security.TokenProvider implements it.
type AccessValidator interface {
	ValidateAccess(token string) (security.Identity, error)
}

// Auth validates access tokens from the access_token cookie or the Authorization header.
type Auth struct {
	tokens AccessValidator
	log    *zap.Logger
}

// NewAuth returns an Auth around tokens.
func NewAuth(tokens AccessValidator, log *zap.Logger) *Auth {
	if log == nil {
		log = zap.NewNop()
	}
	return &Auth{tokens: tokens, log: log}
}

// Require rejects requests without a valid access token:
// 401 NO_TOKEN when missing, 401 TOKEN_EXPIRED when expired, 403 INVALID_TOKEN otherwise.
func (a *Auth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ExtractToken(r)
		if token == "" {
			respond.ErrorWithMessage(w, http.StatusUnauthorized, respond.CodeNoToken,
				"Access token required", "Please provide a valid access token")
			return
		}
		id, err := a.tokens.ValidateAccess(token)
		if err != nil {
			if errors.Is(err, security.ErrTokenExpired) {
				respond.ErrorWithMessage(w, http.StatusUnauthorized, respond.CodeTokenExpired,
					"Token expired", "Please refresh your token")
				return
			}
			a.log.Warn("auth: invalid access token",
				zap.String("path", r.URL.Path),
				zap.String("ip", ClientIPFromContext(r.Context())))
			respond.ErrorWithMessage(w, http.StatusForbidden, respond.CodeInvalidToken,
				"Invalid token", "The provided token is not valid")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// Optional sets the identity when a valid token is present and otherwise lets the request through.
func (a *Auth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := ExtractToken(r); token != "" {
			if id, err := a.tokens.ValidateAccess(token); err == nil {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin must run after Require. Non-admins get 403 INSUFFICIENT_PRIVILEGES.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetIdentity(r.Context())
		if !ok {
			respond.ErrorWithMessage(w, http.StatusUnauthorized, respond.CodeNoToken,
				"Authentication required", "User must be authenticated to access admin resources")
			return
		}
		if !id.IsAdmin {
			respond.ErrorWithMessage(w, http.StatusForbidden, respond.CodeInsufficientPrivileges,
				"Admin access required", "This action requires administrator privileges")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ExtractToken returns the access token from the access_token cookie, then the Bearer header, or "".
func ExtractToken(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) || !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
