package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"thatsmartsite/backend/internal/metrics"
)

// routeTemplate returns the matched mux path template, or "unmatched".
// Only meaningful for middleware registered with Router.Use.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// Metrics records request count, latency, size and in-flight gauge, labelled by route template.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.IncRequestsInFlight()
			defer m.DecRequestsInFlight()

			rw := wrap(w)
			next.ServeHTTP(rw, r)
			m.RecordHTTPRequest(r.Method, routeTemplate(r), rw.statusCode, time.Since(start), rw.size)
		})
	}
}
