// Package handler serves the tenant REST endpoints.
package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"thatsmartsite/backend/internal/platform/respond"
	"thatsmartsite/backend/internal/platform/validate"
	"thatsmartsite/backend/internal/tenant/domain"
	"thatsmartsite/backend/internal/tenant/service"
)

// Handler exposes service.Service over HTTP.
type Handler struct {
	svc *service.Service
	log *zap.Logger
}

// NewHandler returns a Handler.
func NewHandler(svc *service.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log}
}

// Signup handles POST /api/tenants/signup.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var in domain.SignupInput
	if err := respond.DecodeJSON(r, &in); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}
	res, err := h.svc.Signup(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.Created(w, "Account created successfully", res)
}

// Get handles GET /api/tenants/{slug}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Get(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.OK(w, d)
}

// List handles GET /api/tenants?industry=&status=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.svc.List(r.Context(), q.Get("status"), q.Get("industry"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.OK(w, list)
}

// Industries handles GET /api/tenants/industries/list.
func (h *Handler) Industries(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Industries(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.OK(w, out)
}

// Slugs handles GET /api/affiliates/slugs.
func (h *Handler) Slugs(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Slugs(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.OK(w, out)
}

// Affiliate handles GET /api/affiliates/{slug}: the approved business without its content.
func (h *Handler) Affiliate(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Get(r.Context(), mux.Vars(r)["slug"])
	if errors.Is(err, service.ErrNotFound) {
		respond.Error(w, http.StatusNotFound, respond.CodeTenantNotFound, "Affiliate not found")
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.OK(w, d.Business)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if v, ok := validate.As(err); ok {
		respond.BadRequest(w, v.Message)
		return
	}
	switch {
	case errors.Is(err, service.ErrEmailExists):
		respond.Error(w, http.StatusBadRequest, respond.CodeEmailExists, "An account with this email already exists")
	case errors.Is(err, service.ErrNotFound):
		respond.Error(w, http.StatusNotFound, respond.CodeTenantNotFound, "Tenant not found or not approved")
	default:
		h.log.Error("tenant: request failed", zap.Error(err))
		respond.Internal(w)
	}
}
