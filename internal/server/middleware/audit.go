package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"thatsmartsite/backend/internal/audit"
)

type auditMetadata struct {
	Status    int    `json:"status"`
	Path      string `json:"path"`
	RequestID string `json:"request_id,omitempty"`
}

// Audit records one audit entry per successful authenticated mutation (POST, PUT, PATCH, DELETE).
// Route templates in skip are audited elsewhere (the auth service writes its own entries).
// Must be registered with Router.Use so the route template is known.
func Audit(logger audit.AuditLogger, skip ...string) func(http.Handler) http.Handler {
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipped[s] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := wrap(w)
			next.ServeHTTP(rw, r)
			if logger == nil || !isMutation(r.Method) || rw.statusCode >= 400 {
				return
			}
			ctx := r.Context()
			userID := GetUserID(ctx)
			tpl := routeTemplate(r)
			if userID == "" || skipped[tpl] {
				return
			}
			ar := audit.ParseRoute(r.Method, tpl)
			meta, _ := json.Marshal(auditMetadata{Status: rw.statusCode, Path: r.URL.Path, RequestID: GetRequestID(ctx)})
			logger.LogEvent(ctx, tenantSlug(r), userID, ar.Action, ar.Resource, string(meta))
		})
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// tenantSlug returns the {slug} route variable, falling back to the resolved tenant.
func tenantSlug(r *http.Request) string {
	if s := mux.Vars(r)["slug"]; s != "" {
		return s
	}
	if t := GetTenant(r.Context()); t != nil {
		return t.Slug
	}
	return ""
}
