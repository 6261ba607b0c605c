package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"thatsmartsite/backend/internal/telemetry"
	"thatsmartsite/backend/internal/telemetry/domain"
)

// instrumentationName names the OTel logger that carries telemetry events.
const instrumentationName = "thatsmartsite.telemetry"

// recordEmitter is the part of otellog.Logger used by the adapter.
type recordEmitter interface {
	Emit(ctx context.Context, record otellog.Record)
}

// NewEventEmitter returns an EventEmitter that sends events as OTel log records via the given LoggerProvider.
// If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return NewEventEmitterWithLogger(provider.Logger(instrumentationName))
}

// NewEventEmitterWithLogger adapts any record emitter (normally an otellog.Logger).
func NewEventEmitterWithLogger(l recordEmitter) telemetry.EventEmitter {
	return &otelEmitter{logger: l, now: time.Now}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *domain.Event) error { return nil }

type otelEmitter struct {
	logger recordEmitter
	now    func() time.Time
}

// Emit converts the event to an OTel log record: metadata becomes the body, identifiers become attributes.
func (e *otelEmitter) Emit(ctx context.Context, event *domain.Event) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	ts := event.CreatedAt
	if ts.IsZero() {
		ts = e.now().UTC()
	}
	rec.SetTimestamp(ts)
	if len(event.Metadata) > 0 {
		rec.SetBody(otellog.BytesValue(event.Metadata))
	}
	addString(&rec, "tenant", event.TenantID)
	addString(&rec, "user_id", event.UserID)
	addString(&rec, "session_id", event.SessionID)
	addString(&rec, "event_type", event.EventType)
	addString(&rec, "source", event.Source)
	addString(&rec, "http.method", event.Method)
	addString(&rec, "http.route", event.Path)
	if event.Status != 0 {
		rec.AddAttributes(otellog.Int("http.status_code", event.Status))
	}
	if event.DurationMS != 0 {
		rec.AddAttributes(otellog.Int64("duration_ms", event.DurationMS))
	}
	if event.Status >= 500 {
		rec.SetSeverity(otellog.SeverityError)
	} else {
		rec.SetSeverity(otellog.SeverityInfo)
	}
	e.logger.Emit(ctx, rec)
	return nil
}

func addString(rec *otellog.Record, key, value string) {
	if value != "" {
		rec.AddAttributes(otellog.String(key, value))
	}
}
