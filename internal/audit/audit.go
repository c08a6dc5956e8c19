package audit

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"geoattend/internal/queue"
)

// MessageType tags audit messages on the queue.
const MessageType = "checkin.audit"

// Event records one check-in decision, accepted or not.
type Event struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	NIM       string    `json:"nim"`
	DeviceID  string    `json:"deviceId"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Outcome   string    `json:"outcome"`
	At        time.Time `json:"at"`
}

// Sink persists audit events.
type Sink interface {
	RecordCheckin(ctx context.Context, evt Event) error
}

// Publisher pushes audit events onto a queue.
type Publisher struct {
	q queue.Queue
}

// NewPublisher creates a publisher over q.
func NewPublisher(q queue.Queue) *Publisher {
	return &Publisher{q: q}
}

// Publish enqueues evt, filling ID and At when unset. Failures are logged
// and never returned; auditing must not affect the caller.
func (p *Publisher) Publish(ctx context.Context, evt Event) {
	if p == nil || p.q == nil {
		return
	}
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	body, err := json.Marshal(evt)
	if err != nil {
		log.Printf("audit: encode event failed: %v", err)
		return
	}
	if err := p.q.Publish(ctx, queue.Message{Type: MessageType, Body: body}); err != nil {
		log.Printf("audit: queue publish failed: %v", err)
	}
}

// Consume drains audit messages from q into sink until ctx is done or the
// queue closes. Undecodable messages and sink errors are logged and skipped.
func Consume(ctx context.Context, q queue.Queue, sink Sink) error {
	messages, err := q.Consume(ctx)
	if err != nil {
		return err
	}
	for msg := range messages {
		if msg.Type != MessageType {
			continue
		}
		var evt Event
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			log.Printf("audit: decode event failed: %v", err)
			continue
		}
		if err := sink.RecordCheckin(ctx, evt); err != nil {
			log.Printf("audit: record event %s failed: %v", evt.ID, err)
		}
	}
	return nil
}
