// Package health tracks process readiness and probes the database and policy engine.
package health

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"
)

// ReadyTimeout bounds the database ping behind the readiness probe.
const ReadyTimeout = 5 * time.Second

// Not-ready reasons.
const (
	ReasonShuttingDown  = "shutting_down"
	ReasonDatabaseError = "database_error"
	ReasonDatabaseSlow  = "database_slow"
	ReasonPolicyError   = "policy_error"
)

// Pinger checks database connectivity. *sqlx.DB and *sql.DB implement it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker checks that the policy engine evaluates. *engine.OPAEvaluator implements it.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Checker runs the probes. A nil Pinger or PolicyChecker skips that probe.
type Checker struct {
	db       Pinger
	policy   PolicyChecker
	started  time.Time
	now      func() time.Time
	shutdown atomic.Bool
}

// NewChecker returns a Checker for the given dependencies.
func NewChecker(db Pinger, policy PolicyChecker) *Checker {
	return &Checker{db: db, policy: policy, started: time.Now(), now: time.Now}
}

// MarkShuttingDown makes Ready fail from now on.
func (c *Checker) MarkShuttingDown() { c.shutdown.Store(true) }

// ShuttingDown reports whether MarkShuttingDown was called.
func (c *Checker) ShuttingDown() bool { return c.shutdown.Load() }

// Uptime is the time since the checker was created.
func (c *Checker) Uptime() time.Duration { return c.now().Sub(c.started) }

// DBStatus is the result of one database ping.
type DBStatus struct {
	Connected bool   `json:"connected"`
	Status    string `json:"status"`
	LatencyMS int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

// PingDB pings the database and measures the latency.
func (c *Checker) PingDB(ctx context.Context) DBStatus {
	if c.db == nil {
		return DBStatus{Status: "Not configured"}
	}
	start := c.now()
	err := c.db.PingContext(ctx)
	latency := c.now().Sub(start)
	if err != nil {
		return DBStatus{Status: "Error", LatencyMS: latency.Milliseconds(), Error: err.Error()}
	}
	return DBStatus{Connected: true, Status: "Connected", LatencyMS: latency.Milliseconds()}
}

// Ready returns "" when the process should receive traffic, else the reason it should not.
// The database ping is bounded by ReadyTimeout.
func (c *Checker) Ready(ctx context.Context) (reason string, db DBStatus) {
	if c.ShuttingDown() {
		return ReasonShuttingDown, DBStatus{}
	}
	if c.db != nil {
		pctx, cancel := context.WithTimeout(ctx, ReadyTimeout)
		db = c.PingDB(pctx)
		cancel()
		if time.Duration(db.LatencyMS)*time.Millisecond > ReadyTimeout || pctx.Err() == context.DeadlineExceeded {
			return ReasonDatabaseSlow, db
		}
		if !db.Connected {
			return ReasonDatabaseError, db
		}
	}
	if c.policy != nil {
		if err := c.policy.HealthCheck(ctx); err != nil {
			return ReasonPolicyError, db
		}
	}
	return "", db
}

// MemStats is a small subset of runtime.MemStats.
type MemStats struct {
	Alloc      uint64 `json:"alloc"`
	Sys        uint64 `json:"sys"`
	HeapInuse  uint64 `json:"heapInuse"`
	Goroutines int    `json:"goroutines"`
}

// ReadMemStats samples the runtime.
func ReadMemStats() MemStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemStats{Alloc: m.Alloc, Sys: m.Sys, HeapInuse: m.HeapInuse, Goroutines: runtime.NumGoroutine()}
}
