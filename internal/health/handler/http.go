package handler

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"thatsmartsite/backend/internal/health"
	"thatsmartsite/backend/internal/platform/respond"
)

// HTTP serves the health, liveness and readiness endpoints.
type HTTP struct {
	checker *health.Checker
	now     func() time.Time
	log     *zap.Logger
}

// NewHTTP returns the REST health handler.
func NewHTTP(checker *health.Checker, log *zap.Logger) *HTTP {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTP{checker: checker, now: time.Now, log: log}
}

type healthBody struct {
	Status    string          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	Database  health.DBStatus `json:"database"`
	Uptime    float64         `json:"uptime"`
	Memory    health.MemStats `json:"memory"`
	Shutdown  bool            `json:"shutdown"`
}

// Health reports the overall status. It always answers 200 so dashboards can read the body.
func (h *HTTP) Health(w http.ResponseWriter, r *http.Request) {
	db := h.checker.PingDB(r.Context())
	status := "OK"
	if db.Error != "" {
		status = "DEGRADED"
		h.log.Warn("health: database ping failed", zap.String("error", db.Error))
	}
	respond.JSON(w, http.StatusOK, healthBody{
		Status:    status,
		Timestamp: h.now().UTC(),
		Database:  db,
		Uptime:    h.checker.Uptime().Seconds(),
		Memory:    health.ReadMemStats(),
		Shutdown:  h.checker.ShuttingDown(),
	})
}

// Live answers 200 while the process is running.
func (h *HTTP) Live(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"status":    "alive",
		"timestamp": h.now().UTC(),
	})
}

// Ready answers 503 while shutting down or when a dependency is failing.
func (h *HTTP) Ready(w http.ResponseWriter, r *http.Request) {
	reason, db := h.checker.Ready(r.Context())
	if reason != "" {
		body := map[string]interface{}{
			"status":    "not_ready",
			"reason":    reason,
			"timestamp": h.now().UTC(),
		}
		if db.Error != "" {
			body["error"] = db.Error
		}
		if reason == health.ReasonDatabaseSlow {
			body["responseTime"] = db.LatencyMS
		}
		respond.JSON(w, http.StatusServiceUnavailable, body)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ready",
		"timestamp": h.now().UTC(),
		"database": map[string]interface{}{
			"connected":    db.Connected,
			"responseTime": db.LatencyMS,
		},
	})
}
