package main

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap/zaptest"
)

type scriptedReader struct {
	msgs   []kafka.Message
	errs   []error
	cancel context.CancelFunc
}

func (s *scriptedReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return kafka.Message{}, err
	}
	if len(s.msgs) == 0 {
		s.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := s.msgs[0]
	s.msgs = s.msgs[1:]
	return m, nil
}

type recordingPusher struct {
	lines [][]byte
	fail  string
}

func (p *recordingPusher) PushEventJSON(_ context.Context, raw []byte) error {
	if string(raw) == p.fail {
		return errors.New("loki down")
	}
	p.lines = append(p.lines, raw)
	return nil
}

func TestConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := &scriptedReader{
		errs:   []error{errors.New("rebalance")},
		msgs:   []kafka.Message{{Value: []byte(`{"event_type":"http_request"}`)}, {Value: []byte("bad")}, {Value: []byte(`{}`)}},
		cancel: cancel,
	}
	p := &recordingPusher{fail: "bad"}

	got := consume(ctx, r, p, zaptest.NewLogger(t))
	if got != 2 {
		t.Errorf("pushed = %d, want 2", got)
	}
	if len(p.lines) != 2 || string(p.lines[1]) != "{}" {
		t.Errorf("lines = %q", p.lines)
	}
}
