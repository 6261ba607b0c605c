// Package handler serves the review REST endpoints.
package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"thatsmartsite/backend/internal/platform/rbac"
	"thatsmartsite/backend/internal/platform/respond"
	"thatsmartsite/backend/internal/platform/validate"
	"thatsmartsite/backend/internal/review/domain"
	"thatsmartsite/backend/internal/review/service"
	"thatsmartsite/backend/internal/server/middleware"
)

const writeAction = "reviews.write"

// multipartOverhead is allowed on top of the file limit for the other form fields.
const multipartOverhead = 1 << 20

// AccessChecker authorizes tenant-scoped writes. *rbac.Guard implements it.
type AccessChecker interface {
	Check(ctx context.Context, slug, action string) (string, error)
}

// Handler exposes service.Service over HTTP.
type Handler struct {
	svc            *service.Service
	access         AccessChecker
	maxUploadBytes int64
	log            *zap.Logger
}

// NewHandler returns a Handler. maxUploadBytes bounds avatar files.
func NewHandler(svc *service.Service, access AccessChecker, maxUploadBytes int64, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 5 << 20
	}
	return &Handler{svc: svc, access: access, maxUploadBytes: maxUploadBytes, log: log}
}

type listResponse struct {
	Success    bool             `json:"success"`
	Data       []*domain.Review `json:"data"`
	Pagination domain.Page      `json:"pagination"`
}

type voteRequest struct {
	VoteType  string `json:"voteType"`
	VoteTypeS string `json:"vote_type"`
}

// Create handles POST /api/tenant-reviews.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}
	rev, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.Created(w, "Review published successfully", rev)
}

// List handles GET /api/tenant-reviews/{slug}?limit=&offset=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, page, err := h.svc.List(r.Context(), mux.Vars(r)["slug"],
		respond.QueryInt(r, "limit", domain.DefaultLimit), respond.QueryInt(r, "offset", 0))
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, listResponse{Success: true, Data: list, Pagination: page})
}

// Get handles GET /api/reviews/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := reviewID(r)
	if err != nil {
		respond.BadRequest(w, "invalid review id")
		return
	}
	rev, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.OK(w, rev)
}

// Update handles PUT /api/reviews/{id}. The caller must be an admin or own the review's tenant.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorizeReview(w, r)
	if !ok {
		return
	}
	var in domain.UpdateInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}
	rev, err := h.svc.Update(r.Context(), id, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, struct {
		Success bool           `json:"success"`
		Message string         `json:"message"`
		Data    *domain.Review `json:"data"`
	}{true, "Review updated successfully", rev})
}

// Delete handles DELETE /api/reviews/{id} and DELETE /api/tenant-reviews/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorizeReview(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	respond.Message(w, "Review deleted successfully")
}

// Vote handles POST /api/reviews/{id}/vote.
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	id, err := reviewID(r)
	if err != nil {
		respond.BadRequest(w, "invalid review id")
		return
	}
	var req voteRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}
	voteType := req.VoteType
	if voteType == "" {
		voteType = req.VoteTypeS
	}
	ip := middleware.ClientIPFromContext(r.Context())
	if ip == "" {
		ip = middleware.RequestClientIP(r)
	}
	counts, err := h.svc.Vote(r.Context(), id, ip, voteType)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, struct {
		Success bool              `json:"success"`
		Message string            `json:"message"`
		Data    domain.VoteCounts `json:"data"`
	}{true, "Vote recorded successfully", counts})
}

// UploadAvatar handles POST /api/tenant-reviews/upload-avatar (multipart: avatar, customerName, reviewId).
func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(w, http.StatusRequestEntityTooLarge, respond.CodePayloadTooLarge, "File too large")
			return
		}
		respond.BadRequest(w, "No file uploaded")
		return
	}
	defer r.MultipartForm.RemoveAll()
	file, _, err := r.FormFile("avatar")
	if err != nil {
		respond.BadRequest(w, "No file uploaded")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		respond.BadRequest(w, "No file uploaded")
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		respond.Error(w, http.StatusRequestEntityTooLarge, respond.CodePayloadTooLarge, "File too large")
		return
	}
	av, err := h.svc.UploadAvatar(r.Context(), r.FormValue("reviewId"), r.FormValue("customerName"), data)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, struct {
		Success   bool   `json:"success"`
		Message   string `json:"message"`
		AvatarURL string `json:"avatarUrl"`
		Filename  string `json:"filename"`
	}{true, "Avatar uploaded successfully", av.AvatarURL, av.Filename})
}

// CheckGBP handles GET /api/tenant-reviews/check-gbp-url/{slug}.
func (h *Handler) CheckGBP(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.CheckGBP(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.OK(w, st)
}

// authorizeReview loads the review named by {id} and checks write access to its tenant.
// It writes the failure response and returns false when the request must stop.
func (h *Handler) authorizeReview(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := reviewID(r)
	if err != nil {
		respond.BadRequest(w, "invalid review id")
		return 0, false
	}
	rev, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return 0, false
	}
	if _, err := h.access.Check(r.Context(), rev.TenantSlug, writeAction); err != nil {
		if errors.Is(err, rbac.ErrTenantNotFound) {
			// Orphaned reviews are only reachable by admins.
			if ident, ok := middleware.GetIdentity(r.Context()); ok && ident.IsAdmin {
				return id, true
			}
			err = rbac.ErrForbidden
		}
		rbac.WriteError(w, h.log, err)
		return 0, false
	}
	return id, true
}

func reviewID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid review id")
	}
	return id, nil
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if v, ok := validate.As(err); ok {
		respond.BadRequest(w, v.Message)
		return
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		respond.NotFound(w, "Review not found")
	case errors.Is(err, domain.ErrNothingToUpdate):
		respond.BadRequest(w, "No valid fields to update")
	case errors.Is(err, service.ErrTenantNotFound):
		respond.Error(w, http.StatusNotFound, respond.CodeTenantNotFound, "Tenant not found")
	default:
		h.log.Error("review: request failed", zap.Error(err))
		respond.Internal(w)
	}
}
