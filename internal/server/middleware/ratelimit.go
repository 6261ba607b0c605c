package middleware

import (
	"math"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"thatsmartsite/backend/internal/metrics"
	"thatsmartsite/backend/internal/platform/respond"
)

// idleTTL is how long an unused per-IP bucket is kept before the sweep drops it.
const idleTTL = 30 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter allows limit requests per window for each client IP (token bucket, burst = limit).
type RateLimiter struct {
	name      string
	limit     rate.Limit
	burst     int
	logger    *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

// NewRateLimiter returns a per-IP limiter. limit <= 0 disables limiting.
func NewRateLimiter(name string, limit int, window time.Duration, logger *zap.Logger, m *metrics.Metrics) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	rl := &RateLimiter{
		name:     name,
		burst:    limit,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
	if limit > 0 && window > 0 {
		rl.limit = rate.Every(window / time.Duration(limit))
	}
	return rl
}

// Limit applies rate limiting to requests, answering 429 RATE_LIMITED with Retry-After.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.burst <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		ip := ClientIPFromContext(r.Context())
		if ip == "" {
			ip = RequestClientIP(r)
		}
		ok, retryAfter := rl.allow(ip)
		if !ok {
			rl.logger.Warn("rate limit exceeded",
				zap.String("limiter", rl.name),
				zap.String("request_id", GetRequestID(r.Context())),
				zap.String("path", r.URL.Path),
				zap.String("ip", ip),
			)
			rl.metrics.RecordRateLimited(rl.name)
			respond.TooManyRequests(w, int(math.Ceil(retryAfter.Seconds())))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(key string) (bool, time.Duration) {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) > idleTTL {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) > idleTTL {
				delete(rl.visitors, k)
			}
		}
		rl.lastSweep = now
	}

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now

	res := v.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, time.Second
	}
	if d := res.DelayFrom(now); d > 0 {
		res.CancelAt(now)
		return false, d
	}
	return true, 0
}
