// Package events is the in-process event bus the evaluation engine publishes
// its outcomes on.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is implemented by every published event.
type Event interface {
	// EventName is the subscription key, e.g. "evaluation.lead.evaluated".
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent carries an id and timestamp. Subscribers that forward events
// elsewhere use the id to drop duplicates.
type BaseEvent struct {
	EventID   uuid.UUID `json:"eventId"`
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

func (e BaseEvent) ID() uuid.UUID {
	return e.EventID
}

// NewBaseEvent stamps a fresh id and the current UTC time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{EventID: uuid.New(), Timestamp: time.Now().UTC()}
}

type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes events to the handlers subscribed to their name.
type Bus interface {
	// Publish runs handlers in the background; failures are only logged.
	Publish(ctx context.Context, event Event)
	// PublishSync runs handlers in order and joins their errors.
	PublishSync(ctx context.Context, event Event) error
	Subscribe(eventName string, handler Handler)
}
