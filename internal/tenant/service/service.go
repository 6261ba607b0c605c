// Package service implements tenant signup and the public tenant queries.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"thatsmartsite/backend/internal/audit"
	"thatsmartsite/backend/internal/industry"
	"thatsmartsite/backend/internal/security"
	areadomain "thatsmartsite/backend/internal/servicearea/domain"
	"thatsmartsite/backend/internal/telemetry"
	teledomain "thatsmartsite/backend/internal/telemetry/domain"
	"thatsmartsite/backend/internal/tenant/domain"
	"thatsmartsite/backend/internal/tenant/repository"
	userdomain "thatsmartsite/backend/internal/user/domain"
	contentdomain "thatsmartsite/backend/internal/websitecontent/domain"
)

var (
	ErrEmailExists = errors.New("an account with this email already exists")
	ErrNotFound    = errors.New("tenant not found or not approved")
)

const (
	maxSlugAttempts    = 100
	tempPasswordLength = 16
)

// Service creates and reads tenants.
type Service struct {
	repo     repository.Repository
	registry *industry.Registry
	hasher   *security.Hasher
	audit    audit.AuditLogger
	events   *telemetry.Async
	log      *zap.Logger
	now      func() time.Time
}

// NewService returns a Service. registry, auditLogger and events may be nil.
func NewService(
	repo repository.Repository,
	registry *industry.Registry,
	hasher *security.Hasher,
	auditLogger audit.AuditLogger,
	events *telemetry.Async,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		registry: registry,
		hasher:   hasher,
		audit:    auditLogger,
		events:   events,
		log:      log,
		now:      time.Now,
	}
}

// Signup creates the owner account, an approved business with a unique slug and its
// default website content.
func (s *Service) Signup(ctx context.Context, in domain.SignupInput) (*domain.SignupResult, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	exists, err := s.repo.EmailExists(ctx, in.PersonalEmail)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, ErrEmailExists
	}

	areas := domain.ServiceAreas{}
	if addr := in.BusinessAddress; addr.City != "" && addr.State != "" {
		// The address is taken as given; the dashboard's state format rule does not apply here.
		areas = append(areas, areadomain.Area{
			City:       addr.City,
			State:      addr.State,
			Zip:        areadomain.Zip(addr.Zip),
			Primary:    true,
			Minimum:    0,
			Multiplier: 1.0,
		})
	}

	temp, err := security.TempPassword(tempPasswordLength)
	if err != nil {
		return nil, fmt.Errorf("temp password: %w", err)
	}
	hash, err := s.hasher.Hash(temp)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	base := domain.GenerateSlug(in.BusinessName)
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		slug := domain.SlugCandidate(base, attempt)
		taken, err := s.repo.SlugExists(ctx, slug)
		if err != nil {
			return nil, fmt.Errorf("check slug: %w", err)
		}
		if taken {
			continue
		}
		signup := &repository.Signup{
			User: &userdomain.User{
				Email:        in.PersonalEmail,
				PasswordHash: hash,
				Name:         in.FirstName + " " + in.LastName,
				Phone:        in.PersonalPhone,
			},
			Business: &domain.Business{
				Slug:              slug,
				BusinessName:      in.BusinessName,
				FirstName:         in.FirstName,
				LastName:          in.LastName,
				BusinessPhone:     in.BusinessPhone,
				PersonalPhone:     in.PersonalPhone,
				BusinessEmail:     in.ContactEmail(),
				PersonalEmail:     in.PersonalEmail,
				Industry:          in.Industry,
				ApplicationStatus: domain.StatusApproved,
				ServiceAreas:      areas,
				Notes:             in.Notes(),
			},
			Content: s.defaultContent(in),
		}
		err = s.repo.CreateSignup(ctx, signup)
		switch {
		case errors.Is(err, repository.ErrSlugTaken):
			continue
		case errors.Is(err, repository.ErrEmailTaken):
			return nil, ErrEmailExists
		case err != nil:
			return nil, fmt.Errorf("create signup: %w", err)
		}
		res := domain.NewSignupResult(signup.Business.ID, slug, signup.User.ID)
		s.recordSignup(ctx, res, in.Industry)
		return res, nil
	}
	return nil, fmt.Errorf("create signup: no free slug for %q after %d attempts", base, maxSlugAttempts)
}

// Get returns the approved tenant with its content.
func (s *Service) Get(ctx context.Context, slug string) (*domain.Detail, error) {
	d, err := s.repo.GetApprovedBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	if d == nil {
		return nil, ErrNotFound
	}
	return d, nil
}

// List returns tenants by status (default approved) and optional industry.
func (s *Service) List(ctx context.Context, status, industryName string) ([]*domain.Business, error) {
	if status == "" {
		status = domain.StatusApproved
	}
	list, err := s.repo.List(ctx, status, industryName)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	return list, nil
}

// Industries returns approved tenant counts per industry.
func (s *Service) Industries(ctx context.Context) ([]domain.IndustryCount, error) {
	out, err := s.repo.Industries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list industries: %w", err)
	}
	return out, nil
}

// Slugs lists approved tenants by name.
func (s *Service) Slugs(ctx context.Context) ([]domain.SlugName, error) {
	out, err := s.repo.Slugs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tenant slugs: %w", err)
	}
	return out, nil
}

func (s *Service) defaultContent(in domain.SignupInput) *contentdomain.Content {
	var defaults *industry.Defaults
	if s.registry != nil {
		if d, ok := s.registry.Get(in.Industry); ok {
			defaults = &d
		}
	}
	return contentdomain.FromDefaults(in.BusinessName, in.Industry, in.BusinessAddress.City, defaults)
}

type signupMetadata struct {
	Slug     string `json:"slug"`
	TenantID int64  `json:"tenant_id"`
	Industry string `json:"industry"`
}

func (s *Service) recordSignup(ctx context.Context, res *domain.SignupResult, industryName string) {
	s.log.Info("tenant signup",
		zap.String("slug", res.Slug),
		zap.Int64("tenant_id", res.TenantID),
		zap.String("user_id", res.UserID),
		zap.String("industry", industryName),
	)
	meta, _ := json.Marshal(signupMetadata{Slug: res.Slug, TenantID: res.TenantID, Industry: industryName})
	if s.audit != nil {
		s.audit.LogEvent(ctx, res.Slug, res.UserID, "signup", "tenant", string(meta))
	}
	s.events.EmitAsync(&teledomain.Event{
		TenantID:  res.Slug,
		UserID:    res.UserID,
		EventType: teledomain.EventSignup,
		Source:    "tenant_service",
		Metadata:  meta,
		CreatedAt: s.now().UTC(),
	})
}
