package producer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"

	"thatsmartsite/backend/internal/telemetry/domain"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestNewKafkaProducer_Disabled(t *testing.T) {
	if p := NewKafkaProducer(nil, "topic"); p != nil {
		t.Error("no brokers should disable the producer")
	}
	if p := NewKafkaProducer([]string{"localhost:9092"}, ""); p != nil {
		t.Error("empty topic should disable the producer")
	}
	var p *KafkaProducer
	if err := p.Emit(context.Background(), &domain.Event{}); err != nil {
		t.Errorf("nil Emit: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}
}

func TestKafkaProducer_Emit(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaProducer{writer: w, topic: "site-telemetry"}

	err := p.Emit(context.Background(), &domain.Event{TenantID: "acme", EventType: domain.EventRequest, Source: "http", Status: 200})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "acme" {
		t.Errorf("key = %q, want acme", w.msgs[0].Key)
	}
	var got domain.Event
	if err := json.Unmarshal(w.msgs[0].Value, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.EventType != domain.EventRequest || got.Status != 200 {
		t.Errorf("payload = %+v", got)
	}

	if err := p.Emit(context.Background(), &domain.Event{EventType: "x"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if w.msgs[1].Key != nil {
		t.Errorf("key without tenant = %q, want nil", w.msgs[1].Key)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Errorf("Close err=%v closed=%v", err, w.closed)
	}
}

func TestKafkaProducer_EmitError(t *testing.T) {
	want := errors.New("leader not available")
	p := &KafkaProducer{writer: &fakeWriter{err: want}}
	if err := p.Emit(context.Background(), &domain.Event{}); !errors.Is(err, want) {
		t.Errorf("Emit err = %v, want %v", err, want)
	}
}
