package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"thatsmartsite/backend/internal/audit"
	"thatsmartsite/backend/internal/platform/validate"
	"thatsmartsite/backend/internal/security"
	sessiondomain "thatsmartsite/backend/internal/session/domain"
	userdomain "thatsmartsite/backend/internal/user/domain"
)

// Sentinel errors for the auth service; the HTTP handler maps them to status codes.
var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidRefreshToken    = errors.New("invalid or expired refresh token")
	ErrRefreshTokenReuse      = errors.New("refresh token reuse detected; all sessions revoked")
	ErrUserNotFound           = errors.New("user not found")
	ErrDeviceNotFound         = errors.New("device not found")
)

// MinPasswordLength is the shortest accepted password on register.
const MinPasswordLength = 8

// Client identifies the calling device.
type Client struct {
	UserAgent string
	IP        string
}

// DeviceID is the stable session name for this client.
func (c Client) DeviceID() string { return security.DeviceID(c.UserAgent, c.IP) }

// RegisterInput is the body of a register request.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

// AuthResult holds the signed-in user and a fresh token pair.
type AuthResult struct {
	User             *userdomain.User
	SessionID        string
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	GetByID(ctx context.Context, id string) (*sessiondomain.Session, error)
	ListActiveByUser(ctx context.Context, userID string) ([]*sessiondomain.Session, error)
	Create(ctx context.Context, s *sessiondomain.Session) error
	Revoke(ctx context.Context, id string) error
	RevokeByDevice(ctx context.Context, userID, deviceID string) (int64, error)
	RevokeAllByUser(ctx context.Context, userID string) error
	RotateRefreshToken(ctx context.Context, sessionID, oldJti, newJti, refreshTokenHash string, at time.Time) (bool, error)
}

// AuthService implements password register, login, refresh rotation, logout and session management.
type AuthService struct {
	users       UserRepo
	sessions    SessionRepo
	hasher      *security.Hasher
	tokens      *security.TokenProvider
	adminEmails map[string]struct{}
	audit       audit.AuditLogger
	log         *zap.Logger
	now         func() time.Time
}

// NewAuthService returns an AuthService. adminEmails are matched case-insensitively on register.
// auditLogger may be nil.
func NewAuthService(
	users UserRepo,
	sessions SessionRepo,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	adminEmails []string,
	auditLogger audit.AuditLogger,
	log *zap.Logger,
) *AuthService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if e = userdomain.NormalizeEmail(e); e != "" {
			admins[e] = struct{}{}
		}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		users:       users,
		sessions:    sessions,
		hasher:      hasher,
		tokens:      tokens,
		adminEmails: admins,
		audit:       auditLogger,
		log:         log,
		now:         time.Now,
	}
}

// Register creates a user and signs them in on the calling device.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, client Client) (*AuthResult, error) {
	email := userdomain.NormalizeEmail(in.Email)
	if err := validate.Required("email", email, "password", in.Password, "name", in.Name); err != nil {
		return nil, err
	}
	if !validate.Email(email) {
		return nil, validate.New("email", "invalid email format")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, validate.New("password", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	_, isAdmin := s.adminEmails[email]
	user := &userdomain.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hashed,
		Name:         strings.TrimSpace(in.Name),
		Phone:        strings.TrimSpace(in.Phone),
		IsAdmin:      isAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, validate.New("email", err.Error())
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logEvent(ctx, user.ID, "register", "")
	return s.startSession(ctx, user, client)
}

// Login authenticates with email and password and starts a session for the calling device.
// An earlier session on the same device is revoked.
func (s *AuthService) Login(ctx context.Context, email, password string, client Client) (*AuthResult, error) {
	email = userdomain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, validate.New("email", "Email and password are required")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == "" {
		s.logEvent(ctx, "", "login_failed", email)
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.logEvent(ctx, user.ID, "login_failed", email)
		return nil, ErrInvalidCredentials
	}
	if _, err := s.sessions.RevokeByDevice(ctx, user.ID, client.DeviceID()); err != nil {
		return nil, err
	}
	res, err := s.startSession(ctx, user, client)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		s.log.Warn("auth: update last login", zap.String("user_id", user.ID), zap.Error(err))
	}
	s.logEvent(ctx, user.ID, "login", "")
	return res, nil
}

// Refresh validates the refresh token, rotates it, and returns a new token pair.
// Presenting an already-rotated token revokes every session of the user.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}
	sessionID, jti, userID, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.UserID != userID {
		return nil, ErrInvalidRefreshToken
	}
	if sess.RefreshJti != jti {
		if err := s.sessions.RevokeAllByUser(ctx, userID); err != nil {
			s.log.Error("auth: revoke sessions after refresh reuse", zap.String("user_id", userID), zap.Error(err))
		}
		s.logEvent(ctx, userID, "refresh_reuse", sessionID)
		return nil, ErrRefreshTokenReuse
	}
	now := s.now().UTC()
	if !sess.Active(now) {
		return nil, ErrInvalidRefreshToken
	}
	if sess.RefreshTokenHash != "" && !security.RefreshTokenHashEqual(refreshToken, sess.RefreshTokenHash) {
		return nil, ErrInvalidRefreshToken
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidRefreshToken
	}
	newRefresh, newJti, refreshExp, err := s.tokens.IssueRefresh(sessionID, userID)
	if err != nil {
		return nil, err
	}
	// A concurrent refresh with the same token may have rotated first; the loser gets no token
	// but the session stays live.
	rotated, err := s.sessions.RotateRefreshToken(ctx, sessionID, jti, newJti, security.HashRefreshToken(newRefresh), now)
	if err != nil {
		return nil, err
	}
	if !rotated {
		return nil, ErrInvalidRefreshToken
	}
	access, _, accessExp, err := s.tokens.IssueAccess(identityOf(user, sessionID))
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		User:             user,
		SessionID:        sessionID,
		AccessToken:      access,
		RefreshToken:     newRefresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Logout revokes the session named by the refresh token, else the session of the access token.
// Unknown or invalid tokens are a no-op.
func (s *AuthService) Logout(ctx context.Context, refreshToken, accessSessionID string) error {
	sessionID := accessSessionID
	userID := ""
	if refreshToken != "" {
		sid, _, uid, err := s.tokens.ValidateRefresh(refreshToken)
		if err == nil {
			sessionID, userID = sid, uid
		}
	}
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return err
	}
	s.logEvent(ctx, userID, "logout", sessionID)
	return nil
}

// LogoutAll revokes every session of the user.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	if userID == "" {
		return validate.New("userId", "User ID is required")
	}
	if err := s.sessions.RevokeAllByUser(ctx, userID); err != nil {
		return err
	}
	s.logEvent(ctx, userID, "logout_all", "")
	return nil
}

// Me returns the profile of the signed-in user.
func (s *AuthService) Me(ctx context.Context, userID string) (*userdomain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// Sessions lists the user's active sessions, newest first.
func (s *AuthService) Sessions(ctx context.Context, userID string) ([]*sessiondomain.Session, error) {
	return s.sessions.ListActiveByUser(ctx, userID)
}

// RevokeDevice signs the user out on one device.
func (s *AuthService) RevokeDevice(ctx context.Context, userID, deviceID string) error {
	if userID == "" || deviceID == "" {
		return validate.New("deviceId", "User ID and Device ID are required")
	}
	n, err := s.sessions.RevokeByDevice(ctx, userID, deviceID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDeviceNotFound
	}
	s.logEvent(ctx, userID, "revoke_device", deviceID)
	return nil
}

// CheckEmail reports whether an account exists for email.
func (s *AuthService) CheckEmail(ctx context.Context, email string) (bool, error) {
	email = userdomain.NormalizeEmail(email)
	if email == "" {
		return false, validate.New("email", "Email is required")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return u != nil, nil
}

func (s *AuthService) startSession(ctx context.Context, user *userdomain.User, client Client) (*AuthResult, error) {
	sessionID := uuid.New().String()
	refresh, jti, refreshExp, err := s.tokens.IssueRefresh(sessionID, user.ID)
	if err != nil {
		return nil, err
	}
	access, _, accessExp, err := s.tokens.IssueAccess(identityOf(user, sessionID))
	if err != nil {
		return nil, err
	}
	sess := &sessiondomain.Session{
		ID:               sessionID,
		UserID:           user.ID,
		DeviceID:         client.DeviceID(),
		RefreshJti:       jti,
		RefreshTokenHash: security.HashRefreshToken(refresh),
		IPAddress:        client.IP,
		UserAgent:        client.UserAgent,
		ExpiresAt:        refreshExp,
		CreatedAt:        s.now().UTC(),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	return &AuthResult{
		User:             user,
		SessionID:        sessionID,
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *AuthService) logEvent(ctx context.Context, userID, action, metadata string) {
	if s.audit == nil {
		return
	}
	s.audit.LogEvent(ctx, audit.PlatformTenantID, userID, action, "auth", metadata)
}

func identityOf(u *userdomain.User, sessionID string) security.Identity {
	return security.Identity{UserID: u.ID, SessionID: sessionID, Email: u.Email, IsAdmin: u.IsAdmin}
}
