// Package handler serves the website content REST endpoints.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"thatsmartsite/backend/internal/platform/rbac"
	"thatsmartsite/backend/internal/platform/respond"
	"thatsmartsite/backend/internal/platform/validate"
	"thatsmartsite/backend/internal/websitecontent/domain"
	"thatsmartsite/backend/internal/websitecontent/service"
)

const writeAction = "content.write"

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

// Get handles GET /api/website-content/{slug}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.OK(w, c)
}

// Save handles PUT /api/website-content/{slug}.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	if _, err := h.access.Check(r.Context(), slug, writeAction); err != nil {
		rbac.WriteError(w, h.log, err)
		return
	}
	var c domain.Content
	if err := respond.DecodeJSON(r, &c); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}
	saved, err := h.svc.Save(r.Context(), slug, c)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Data    *domain.Content `json:"data"`
	}{true, "Website content saved successfully", saved})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if v, ok := validate.As(err); ok {
		respond.BadRequest(w, v.Message)
		return
	}
	if errors.Is(err, service.ErrTenantNotFound) {
		respond.Error(w, http.StatusNotFound, respond.CodeTenantNotFound, "Tenant not found")
		return
	}
	h.log.Error("websitecontent: request failed", zap.Error(err))
	respond.Internal(w)
}
