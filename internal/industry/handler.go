package industry

import (
	"net/http"

	"github.com/gorilla/mux"

	"thatsmartsite/backend/internal/platform/respond"
)

// Handler serves the industry defaults.
type Handler struct {
	reg *Registry
}

// NewHandler returns a Handler over reg.
func NewHandler(reg *Registry) *Handler {
	return &Handler{reg: reg}
}

// List handles GET /api/industries.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, h.reg.Names())
}

// Defaults handles GET /api/industries/{industry}/defaults.
func (h *Handler) Defaults(w http.ResponseWriter, r *http.Request) {
	d, ok := h.reg.Get(mux.Vars(r)["industry"])
	if !ok {
		respond.NotFound(w, "Unknown industry")
		return
	}
	respond.OK(w, d)
}
