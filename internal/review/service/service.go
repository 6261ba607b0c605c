// Package service implements review submission, moderation, voting and avatar uploads.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"thatsmartsite/backend/internal/platform/validate"
	"thatsmartsite/backend/internal/review/domain"
	"thatsmartsite/backend/internal/review/repository"
	"thatsmartsite/backend/internal/telemetry"
	teledomain "thatsmartsite/backend/internal/telemetry/domain"
)

// ErrTenantNotFound is returned when no business has the slug.
var ErrTenantNotFound = errors.New("tenant not found")

// Service manages reviews.
type Service struct {
	repo    repository.Repository
	avatars AvatarStore
	events  *telemetry.Async
	log     *zap.Logger
	now     func() time.Time
}

// NewService returns a Service. avatars and events may be nil; avatar uploads then fail.
func NewService(repo repository.Repository, avatars AvatarStore, events *telemetry.Async, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, avatars: avatars, events: events, log: log, now: time.Now}
}

// Create validates in and stores the review.
func (s *Service) Create(ctx context.Context, in domain.CreateInput) (*domain.Review, error) {
	r, err := domain.NewReview(in)
	if err != nil {
		return nil, err
	}
	out, err := s.repo.Create(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	return out, nil
}

// List returns one page of the tenant's reviews.
func (s *Service) List(ctx context.Context, slug string, limit, offset int) ([]*domain.Review, domain.Page, error) {
	limit, offset = domain.ClampPage(limit, offset)
	list, total, err := s.repo.ListByTenant(ctx, slug, limit, offset)
	if err != nil {
		return nil, domain.Page{}, fmt.Errorf("list reviews: %w", err)
	}
	return list, domain.NewPage(total, limit, offset), nil
}

// Get returns the review or domain.ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Review, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if r == nil {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id int64, in domain.UpdateInput) (*domain.Review, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	r, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	if r == nil {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

// Delete removes the review.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

type voteMetadata struct {
	ReviewID int64  `json:"review_id"`
	VoteType string `json:"vote_type"`
}

// Vote records the caller's vote and returns the recounted totals.
func (s *Service) Vote(ctx context.Context, id int64, voterIP, voteType string) (domain.VoteCounts, error) {
	vt, err := domain.ParseVoteType(voteType)
	if err != nil {
		return domain.VoteCounts{}, err
	}
	if voterIP == "" {
		voterIP = "unknown"
	}
	counts, found, err := s.repo.Vote(ctx, id, voterIP, vt)
	if err != nil {
		return domain.VoteCounts{}, fmt.Errorf("vote: %w", err)
	}
	if !found {
		return domain.VoteCounts{}, domain.ErrNotFound
	}
	meta, _ := json.Marshal(voteMetadata{ReviewID: id, VoteType: vt})
	s.events.EmitAsync(&teledomain.Event{
		EventType: teledomain.EventReviewVote,
		Source:    "review_service",
		Metadata:  meta,
		CreatedAt: s.now().UTC(),
	})
	return counts, nil
}

// Avatar is a stored avatar image.
type Avatar struct {
	Filename  string `json:"filename"`
	AvatarURL string `json:"avatarUrl"`
}

// UploadAvatar checks the image by content sniffing, stores it and links it to the review.
func (s *Service) UploadAvatar(ctx context.Context, reviewIDRaw, customerName string, data []byte) (*Avatar, error) {
	customerName = strings.TrimSpace(customerName)
	reviewID, err := strconv.ParseInt(strings.TrimSpace(reviewIDRaw), 10, 64)
	if customerName == "" || err != nil || reviewID <= 0 {
		return nil, validate.New("reviewId", "customerName and reviewId are required")
	}
	if len(data) == 0 {
		return nil, validate.New("avatar", "No file uploaded")
	}
	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), domain.AllowedAvatarTypes...) {
		return nil, validate.New("avatar", "Only JPEG, PNG, GIF and WebP images are allowed")
	}
	if _, err := s.Get(ctx, reviewID); err != nil {
		return nil, err
	}
	if s.avatars == nil {
		return nil, errors.New("upload avatar: no avatar store configured")
	}
	name := domain.AvatarFilename(customerName, reviewID, mt.Extension(), s.now())
	if err := s.avatars.Save(ctx, name, data); err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}
	ok, err := s.repo.SetAvatar(ctx, reviewID, name)
	if err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}
	if !ok {
		return nil, domain.ErrNotFound
	}
	s.log.Debug("avatar stored", zap.Int64("review_id", reviewID), zap.String("filename", name))
	return &Avatar{Filename: name, AvatarURL: domain.AvatarURL(name)}, nil
}

// CheckGBP reports and classifies the tenant's Google Business Profile URL.
func (s *Service) CheckGBP(ctx context.Context, slug string) (*domain.GBPStatus, error) {
	name, gbp, found, err := s.repo.GBP(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("check gbp url: %w", err)
	}
	if !found {
		return nil, ErrTenantNotFound
	}
	st := &domain.GBPStatus{TenantSlug: slug, BusinessName: name}
	if gbp = strings.TrimSpace(gbp); gbp != "" {
		st.HasGBPURL = true
		st.GBPURL = gbp
		st.URLType = domain.ClassifyGBPURL(gbp)
	}
	return st, nil
}
