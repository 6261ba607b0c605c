// Package handler serves the /api/auth endpoints over the auth service.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"thatsmartsite/backend/internal/identity/service"
	"thatsmartsite/backend/internal/metrics"
	"thatsmartsite/backend/internal/platform/respond"
	"thatsmartsite/backend/internal/platform/validate"
	"thatsmartsite/backend/internal/server/middleware"
	sessiondomain "thatsmartsite/backend/internal/session/domain"
	"thatsmartsite/backend/internal/telemetry"
	teledomain "thatsmartsite/backend/internal/telemetry/domain"
	userdomain "thatsmartsite/backend/internal/user/domain"
)

// Handler exposes service.AuthService over HTTP.
type Handler struct {
	svc           *service.AuthService
	secureCookies bool
	metrics       *metrics.Metrics
	events        *telemetry.Async
	log           *zap.Logger
}

// NewHandler returns a Handler. secureCookies sets the Secure flag on auth cookies (production).
func NewHandler(svc *service.AuthService, secureCookies bool, m *metrics.Metrics, events *telemetry.Async, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, secureCookies: secureCookies, metrics: m, events: events, log: log}
}

// UserView is the public form of a user.
type UserView struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Phone       string     `json:"phone,omitempty"`
	IsAdmin     bool       `json:"isAdmin"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

func viewUser(u *userdomain.User) UserView {
	return UserView{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Phone:       u.Phone,
		IsAdmin:     u.IsAdmin,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

// SessionView is one signed-in device.
type SessionView struct {
	DeviceID   string     `json:"deviceId"`
	IPAddress  string     `json:"ipAddress,omitempty"`
	UserAgent  string     `json:"userAgent,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	Current    bool       `json:"current"`
}

// tokenBody is the register/login response.
type tokenBody struct {
	Success          bool     `json:"success"`
	User             UserView `json:"user"`
	AccessToken      string   `json:"accessToken"`
	RefreshToken     string   `json:"refreshToken"`
	ExpiresIn        int64    `json:"expiresIn"`
	RefreshExpiresIn int64    `json:"refreshExpiresIn"`
}

type tokenData struct {
	AccessToken      string `json:"accessToken"`
	RefreshToken     string `json:"refreshToken"`
	ExpiresIn        int64  `json:"expiresIn"`
	RefreshExpiresIn int64  `json:"refreshExpiresIn"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func client(r *http.Request) service.Client {
	ip := middleware.ClientIPFromContext(r.Context())
	if ip == "" {
		ip = middleware.RequestClientIP(r)
	}
	return service.Client{UserAgent: r.UserAgent(), IP: ip}
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}
	res, err := h.svc.Register(r.Context(), service.RegisterInput{
		Email: req.Email, Password: req.Password, Name: req.Name, Phone: req.Phone,
	}, client(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.setCookies(w, res)
	respond.JSON(w, http.StatusCreated, h.tokens(res))
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}
	res, err := h.svc.Login(r.Context(), req.Email, req.Password, client(r))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.metrics.RecordAuthEvent(teledomain.EventLoginFailed)
			h.emit(r, teledomain.EventLoginFailed, "")
		}
		h.writeError(w, err)
		return
	}
	h.metrics.RecordAuthEvent(teledomain.EventLogin)
	h.emit(r, teledomain.EventLogin, res.User.ID)
	h.setCookies(w, res)
	respond.JSON(w, http.StatusOK, h.tokens(res))
}

// Refresh handles POST /api/auth/refresh. The token comes from the body or the refresh_token cookie.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := h.refreshToken(r)
	res, err := h.svc.Refresh(r.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrRefreshTokenReuse) {
			h.metrics.RecordAuthEvent("refresh_reuse")
		}
		h.clearCookies(w)
		h.writeError(w, err)
		return
	}
	h.metrics.RecordAuthEvent("refresh")
	h.setCookies(w, res)
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Token refreshed successfully",
		"data": tokenData{
			AccessToken:      res.AccessToken,
			RefreshToken:     res.RefreshToken,
			ExpiresIn:        secondsUntil(res.AccessExpiresAt),
			RefreshExpiresIn: secondsUntil(res.RefreshExpiresAt),
		},
	})
}

// Logout handles POST /api/auth/logout. It always clears the cookies.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := h.refreshToken(r)
	if err := h.svc.Logout(r.Context(), token, middleware.GetSessionID(r.Context())); err != nil {
		h.log.Error("auth: logout", zap.Error(err))
		respond.Internal(w)
		return
	}
	h.metrics.RecordAuthEvent("logout")
	h.clearCookies(w)
	respond.Message(w, "Logout successful")
}

// LogoutAll handles POST /api/auth/logout-all.
func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.LogoutAll(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		h.writeError(w, err)
		return
	}
	h.clearCookies(w)
	respond.Message(w, "All devices logged out successfully")
}

// Me handles GET /api/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Me(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.OK(w, viewUser(u))
}

// Sessions handles GET /api/auth/sessions.
func (h *Handler) Sessions(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Sessions(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	current := middleware.GetSessionID(r.Context())
	out := make([]SessionView, 0, len(list))
	for _, s := range list {
		out = append(out, viewSession(s, current))
	}
	respond.OK(w, out)
}

func viewSession(s *sessiondomain.Session, currentID string) SessionView {
	return SessionView{
		DeviceID:   s.DeviceID,
		IPAddress:  s.IPAddress,
		UserAgent:  s.UserAgent,
		CreatedAt:  s.CreatedAt,
		LastUsedAt: s.LastUsedAt,
		ExpiresAt:  s.ExpiresAt,
		Current:    s.ID == currentID,
	}
}

// RevokeDevice handles DELETE /api/auth/sessions/{deviceId}.
func (h *Handler) RevokeDevice(w http.ResponseWriter, r *http.Request) {
	err := h.svc.RevokeDevice(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["deviceId"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.Message(w, "Device logged out successfully")
}

// CheckEmail handles POST /api/auth/check-email with {"email"} and GET ?email=.
func (h *Handler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if r.Method == http.MethodPost {
		var body struct {
			Email string `json:"email"`
		}
		if err := respond.DecodeJSON(r, &body); err != nil {
			respond.BadRequest(w, err.Error())
			return
		}
		email = body.Email
	}
	exists, err := h.svc.CheckEmail(r.Context(), email)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]bool{"success": true, "exists": exists})
}

func (h *Handler) refreshToken(r *http.Request) string {
	var body refreshRequest
	if r.Body != nil && r.ContentLength != 0 {
		_ = respond.DecodeJSON(r, &body)
	}
	if body.RefreshToken != "" {
		return body.RefreshToken
	}
	if c, err := r.Cookie(middleware.RefreshTokenCookie); err == nil {
		return c.Value
	}
	return ""
}

func (h *Handler) tokens(res *service.AuthResult) tokenBody {
	return tokenBody{
		Success:          true,
		User:             viewUser(res.User),
		AccessToken:      res.AccessToken,
		RefreshToken:     res.RefreshToken,
		ExpiresIn:        secondsUntil(res.AccessExpiresAt),
		RefreshExpiresIn: secondsUntil(res.RefreshExpiresAt),
	}
}

func secondsUntil(t time.Time) int64 {
	d := time.Until(t)
	if d < 0 {
		return 0
	}
	return int64(d.Round(time.Second) / time.Second)
}

func (h *Handler) setCookies(w http.ResponseWriter, res *service.AuthResult) {
	http.SetCookie(w, h.cookie(middleware.AccessTokenCookie, res.AccessToken, "/", res.AccessExpiresAt))
	http.SetCookie(w, h.cookie(middleware.RefreshTokenCookie, res.RefreshToken, "/api/auth", res.RefreshExpiresAt))
}

func (h *Handler) clearCookies(w http.ResponseWriter) {
	for _, c := range []*http.Cookie{
		h.cookie(middleware.AccessTokenCookie, "", "/", time.Time{}),
		h.cookie(middleware.RefreshTokenCookie, "", "/api/auth", time.Time{}),
	} {
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func (h *Handler) cookie(name, value, path string, expires time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if !expires.IsZero() {
		c.Expires = expires
		c.MaxAge = int(secondsUntil(expires))
	}
	return c
}

func (h *Handler) emit(r *http.Request, eventType, userID string) {
	meta, _ := json.Marshal(map[string]string{"ip": client(r).IP})
	h.events.EmitAsync(&teledomain.Event{
		UserID:    userID,
		EventType: eventType,
		Source:    "auth",
		Method:    r.Method,
		Path:      r.URL.Path,
		Metadata:  meta,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if v, ok := validate.As(err); ok {
		respond.BadRequest(w, v.Message)
		return
	}
	switch {
	case errors.Is(err, service.ErrEmailAlreadyRegistered):
		respond.Error(w, http.StatusConflict, respond.CodeEmailExists, "An account with this email already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		respond.Error(w, http.StatusUnauthorized, respond.CodeInvalidCredentials, "Email or password is incorrect")
	case errors.Is(err, service.ErrRefreshTokenReuse):
		respond.ErrorWithMessage(w, http.StatusUnauthorized, respond.CodeRefreshTokenReuse,
			"Refresh token reuse detected", "All sessions have been revoked. Please log in again")
	case errors.Is(err, service.ErrInvalidRefreshToken):
		respond.Error(w, http.StatusUnauthorized, respond.CodeInvalidRefreshToken, "Invalid or expired refresh token")
	case errors.Is(err, service.ErrUserNotFound):
		respond.NotFound(w, "User not found")
	case errors.Is(err, service.ErrDeviceNotFound):
		respond.NotFound(w, "Device not found")
	default:
		h.log.Error("auth: request failed", zap.Error(err))
		respond.Internal(w)
	}
}
