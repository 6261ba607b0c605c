// Package telemetry emits request and domain events to the configured sinks (OTel logs, Kafka).
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"thatsmartsite/backend/internal/telemetry/domain"
)

// emitTimeout is the max time allowed for a single async emit. Used by EmitAsync and by ShutdownDrainDuration.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration bounds Drain during shutdown. Must be >= emitTimeout.
const ShutdownDrainDuration = emitTimeout

// Async emits events in background goroutines and tracks them so shutdown can drain.
type Async struct {
	emitter EventEmitter
	log     *zap.Logger
	now     func() time.Time
	wg      sync.WaitGroup
}

// NewAsync returns an Async around emitter. A nil emitter makes every emit a no-op.
func NewAsync(emitter EventEmitter, log *zap.Logger) *Async {
	if log == nil {
		log = zap.NewNop()
	}
	return &Async{emitter: emitter, log: log, now: time.Now}
}

// EmitAsync runs Emit in a goroutine with a short timeout so the caller is not blocked.
// The goroutine uses context.Background() so request cancellation does not abort an in-flight emit.
// a, its emitter and event may be nil; then EmitAsync returns without starting a goroutine.
func (a *Async) EmitAsync(event *domain.Event) {
	if a == nil || a.emitter == nil || event == nil {
		return
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = a.now().UTC()
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		emitCtx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := a.emitter.Emit(emitCtx, event); err != nil {
			a.log.Warn("telemetry: async emit failed", zap.String("event_type", event.EventType), zap.Error(err))
		}
	}()
}

// Drain waits for in-flight emits or until ctx is done.
func (a *Async) Drain(ctx context.Context) error {
	if a == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
