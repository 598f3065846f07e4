// Package events publishes user lifecycle notifications to the message queue.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/capoo-pm/apiserver/internal/mq"
	"github.com/google/uuid"
)

// Event types double as channel names.
const (
	TypeUserRegistered     = "user.registered"
	TypeUserProfileUpdated = "user.profile_updated"
)

// Event is the JSON payload written to the queue.
type Event struct {
	Type       string    `json:"type"`
	UserID     uuid.UUID `json:"user_id"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers domain events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// MQPublisher encodes events as JSON and publishes them on the channel named
// after the event type.
type MQPublisher struct {
	queue *mq.MQ
}

func NewMQPublisher(queue *mq.MQ) *MQPublisher {
	return &MQPublisher{queue: queue}
}

func (p *MQPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}
	attrs := map[string]string{
		mq.AttrContentType: "application/json",
		"event_type":       event.Type,
	}
	if _, err := p.queue.Publish(ctx, event.Type, data, attrs); err != nil {
		return fmt.Errorf("publish %s event: %w", event.Type, err)
	}
	return nil
}

// Decode parses a queued event payload.
func Decode(msg mq.Message) (Event, error) {
	var event Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return Event{}, fmt.Errorf("decode event %s: %w", msg.ID, err)
	}
	return event, nil
}
