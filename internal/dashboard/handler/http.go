// Package handler serves the tenant dashboard endpoints.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"thatsmartsite/backend/internal/dashboard/domain"
	"thatsmartsite/backend/internal/dashboard/service"
	"thatsmartsite/backend/internal/platform/rbac"
	"thatsmartsite/backend/internal/platform/respond"
	reviewdomain "thatsmartsite/backend/internal/review/domain"
)

const readAction = "dashboard.read"

// AccessChecker authorizes dashboard reads. *rbac.Guard implements it.
type AccessChecker interface {
	Check(ctx context.Context, slug, action string) (string, error)
}

// Handler exposes service.Service over HTTP.
type Handler struct {
	svc    *service.Service
	access AccessChecker
	log    *zap.Logger
}

// NewHandler returns a Handler.
func NewHandler(svc *service.Service, access AccessChecker, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, access: access, log: log}
}

// authorize checks access and parses dateRange. It writes the error response and returns ok=false on failure.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request) (slug string, dr domain.DateRange, ok bool) {
	slug = mux.Vars(r)["slug"]
	if _, err := h.access.Check(r.Context(), slug, readAction); err != nil {
		rbac.WriteError(w, h.log, err)
		return "", "", false
	}
	dr, err := domain.ParseDateRange(r.URL.Query().Get("dateRange"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidDateRange, domain.InvalidDateRangeMessage)
		return "", "", false
	}
	return slug, dr, true
}

// Dashboard handles GET /api/tenants/{slug}/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	slug, dr, ok := h.authorize(w, r)
	if !ok {
		return
	}
	d, err := h.svc.Dashboard(r.Context(), slug, dr)
	if err != nil {
		h.writeError(w, slug, err)
		return
	}
	respond.OK(w, d)
}

// Overview handles GET /api/tenants/{slug}/dashboard/overview.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	slug, dr, ok := h.authorize(w, r)
	if !ok {
		return
	}
	o, err := h.svc.Overview(r.Context(), slug, dr)
	if err != nil {
		h.writeError(w, slug, err)
		return
	}
	respond.OK(w, o)
}

// Reviews handles GET /api/tenants/{slug}/dashboard/reviews?limit&offset.
func (h *Handler) Reviews(w http.ResponseWriter, r *http.Request) {
	slug, dr, ok := h.authorize(w, r)
	if !ok {
		return
	}
	limit := respond.QueryInt(r, "limit", reviewdomain.DefaultLimit)
	offset := respond.QueryInt(r, "offset", 0)
	page, err := h.svc.Reviews(r.Context(), slug, dr, limit, offset)
	if err != nil {
		h.writeError(w, slug, err)
		return
	}
	respond.OK(w, page)
}

func (h *Handler) writeError(w http.ResponseWriter, slug string, err error) {
	if errors.Is(err, service.ErrNotFound) {
		respond.Error(w, http.StatusNotFound, respond.CodeTenantNotFound, "Tenant not found or not approved")
		return
	}
	h.log.Error("dashboard request failed", zap.String("slug", slug), zap.Error(err))
	respond.Internal(w)
}
