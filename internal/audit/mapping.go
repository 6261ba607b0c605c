package audit

import (
	"net/http"
	"strings"
)

// ActionResource holds action and resource derived from an HTTP method and route template.
type ActionResource struct {
	Action   string
	Resource string
}

// routeOverrides name events whose generic verb would be misleading.
var routeOverrides = map[string]ActionResource{
	"POST /api/tenants/signup":                         {Action: "signup", Resource: "tenant"},
	"PUT /api/affiliates/{slug}/service_areas/primary": {Action: "set_primary", Resource: "service_area"},
	"POST /api/tenant-reviews/upload-avatar":           {Action: "upload_avatar", Resource: "review"},
	"POST /api/reviews/{id}/vote":                      {Action: "vote", Resource: "review"},
	"DELETE /api/auth/sessions/{deviceId}":             {Action: "revoke_device", Resource: "session"},
}

// ParseRoute returns action and resource for a method and a route template such as
// "/api/affiliates/{slug}/service_areas/{city}/{state}".
// Action is create, update or delete for POST, PUT/PATCH and DELETE, otherwise the lower-cased method.
// Resource is the last literal path segment, singularized and with dashes turned into underscores.
func ParseRoute(method, template string) ActionResource {
	if ar, ok := routeOverrides[method+" "+template]; ok {
		return ar
	}
	return ActionResource{Action: methodToAction(method), Resource: templateToResource(template)}
}

func methodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return strings.ToLower(method)
	}
}

func templateToResource(template string) string {
	segments := strings.Split(strings.Trim(template, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		s := segments[i]
		if s == "" || strings.HasPrefix(s, "{") || s == "api" {
			continue
		}
		s = strings.ReplaceAll(s, "-", "_")
		return singular(s)
	}
	return "unknown"
}

func singular(s string) string {
	switch {
	case strings.HasSuffix(s, "ies"):
		return strings.TrimSuffix(s, "ies") + "y"
	case strings.HasSuffix(s, "ss"):
		return s
	case strings.HasSuffix(s, "s"):
		return strings.TrimSuffix(s, "s")
	}
	return s
}
