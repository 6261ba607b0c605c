// Package handler serves the service area ("locations") REST endpoints.
package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"thatsmartsite/backend/internal/platform/rbac"
	"thatsmartsite/backend/internal/platform/respond"
	"thatsmartsite/backend/internal/platform/validate"
	"thatsmartsite/backend/internal/servicearea/domain"
	"thatsmartsite/backend/internal/servicearea/repository"
	"thatsmartsite/backend/internal/servicearea/service"
)

const writeAction = "service_areas.write"

// AccessChecker authorizes tenant-scoped writes. *rbac.Guard implements it.
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

type primaryRequest struct {
	City  string `json:"city"`
	State string `json:"state"`
}

type lookupResponse struct {
	Slugs []string `json:"slugs"`
	Count int      `json:"count"`
}

// List handles GET /api/affiliates/{slug}/service_areas.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	areas, err := h.svc.List(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.OK(w, areas)
}

// Locations handles GET /api/affiliates/{slug}/locations.
func (h *Handler) Locations(w http.ResponseWriter, r *http.Request) {
	groups, err := h.svc.Locations(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.OK(w, groups)
}

// Add handles POST /api/affiliates/{slug}/service_areas.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	if _, err := h.access.Check(r.Context(), slug, writeAction); err != nil {
		rbac.WriteError(w, h.log, err)
		return
	}
	var in domain.Input
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}
	areas, err := h.svc.Add(r.Context(), slug, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.Created(w, "Service area added", areas)
}

// Remove handles DELETE /api/affiliates/{slug}/service_areas/{city}/{state}.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	slug := vars["slug"]
	if _, err := h.access.Check(r.Context(), slug, writeAction); err != nil {
		rbac.WriteError(w, h.log, err)
		return
	}
	city, err := url.PathUnescape(vars["city"])
	if err != nil {
		respond.BadRequest(w, "invalid city")
		return
	}
	areas, err := h.svc.Remove(r.Context(), slug, city, vars["state"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.OK(w, areas)
}

// SetPrimary handles PUT /api/affiliates/{slug}/service_areas/primary.
func (h *Handler) SetPrimary(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	if _, err := h.access.Check(r.Context(), slug, writeAction); err != nil {
		rbac.WriteError(w, h.log, err)
		return
	}
	var req primaryRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}
	areas, err := h.svc.SetPrimary(r.Context(), slug, req.City, req.State)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.OK(w, areas)
}

// Lookup handles GET /api/affiliates/lookup?city=&state=&zip=.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	slugs, err := h.svc.Lookup(r.Context(), q.Get("city"), q.Get("state"), q.Get("zip"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if len(slugs) == 0 {
		respond.NotFound(w, "No affiliates found for this location")
		return
	}
	respond.OK(w, lookupResponse{Slugs: slugs, Count: len(slugs)})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if v, ok := validate.As(err); ok {
		respond.BadRequest(w, v.Message)
		return
	}
	switch {
	case errors.Is(err, service.ErrTenantNotFound):
		respond.Error(w, http.StatusNotFound, respond.CodeTenantNotFound, "Affiliate not found")
	case errors.Is(err, domain.ErrDuplicate):
		respond.Error(w, http.StatusConflict, respond.CodeConflict, "Service area already exists")
	case errors.Is(err, domain.ErrNotFound):
		respond.NotFound(w, "Service area not found")
	case errors.Is(err, repository.ErrMalformedAreas):
		h.log.Error("servicearea: stored areas unreadable", zap.Error(err))
		respond.Error(w, http.StatusConflict, respond.CodeConflict, "Stored service areas are unreadable; fix them before editing")
	default:
		h.log.Error("servicearea: request failed", zap.Error(err))
		respond.Internal(w)
	}
}
