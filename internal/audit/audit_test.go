package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geoattend/internal/queue"
)

type memSink struct {
	mu     sync.Mutex
	events []Event
	fail   bool
	got    chan struct{}
}

func (s *memSink) RecordCheckin(_ context.Context, evt Event) error {
	defer func() { s.got <- struct{}{} }()
	if s.fail {
		return errors.New("sink down")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	return nil
}

func TestPublishAndConsume(t *testing.T) {
	q := queue.NewInMemory(8)
	sink := &memSink{got: make(chan struct{}, 8)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- Consume(ctx, q, sink) }()

	p := NewPublisher(q)
	p.Publish(ctx, Event{SessionID: "s1", NIM: "S1", DeviceID: "d1", Latitude: 1.5, Outcome: "created"})
	require.NoError(t, q.Publish(ctx, queue.Message{Type: "other", Body: []byte(`{}`)}))
	require.NoError(t, q.Publish(ctx, queue.Message{Type: MessageType, Body: []byte(`not json`)}))
	p.Publish(ctx, Event{ID: "fixed", SessionID: "s1", NIM: "S2", Outcome: "too_far", At: time.Unix(0, 0).UTC()})

	for i := 0; i < 2; i++ {
		select {
		case <-sink.got:
		case <-time.After(time.Second):
			t.Fatal("event not consumed")
		}
	}
	cancel()
	assert.NoError(t, <-done)

	require.Len(t, sink.events, 2)
	first := sink.events[0]
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.At.IsZero())
	assert.Equal(t, "S1", first.NIM)
	assert.Equal(t, 1.5, first.Latitude)
	assert.Equal(t, "fixed", sink.events[1].ID)
	assert.Equal(t, "too_far", sink.events[1].Outcome)
}

func TestConsumeSurvivesSinkErrors(t *testing.T) {
	q := queue.NewInMemory(4)
	sink := &memSink{fail: true, got: make(chan struct{}, 4)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = Consume(ctx, q, sink) }()
	NewPublisher(q).Publish(ctx, Event{NIM: "S1"})
	NewPublisher(q).Publish(ctx, Event{NIM: "S2"})

	for i := 0; i < 2; i++ {
		select {
		case <-sink.got:
		case <-time.After(time.Second):
			t.Fatal("consumer stopped after sink error")
		}
	}
	assert.Empty(t, sink.events)
}

func TestNilPublisherIsNoop(t *testing.T) {
	var p *Publisher
	assert.NotPanics(t, func() { p.Publish(context.Background(), Event{}) })
}
