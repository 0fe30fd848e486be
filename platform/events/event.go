// Package events provides the in-process event bus the modules communicate
// over. Publishers never know their subscribers; the automation engine hangs
// off the same bus as any other listener.
// This is part of the platform layer and contains no business logic.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event carried on the bus.
type Event interface {
	// EventName returns the stable name handlers subscribe under.
	EventName() string
	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time
}

// BaseEvent carries the occurrence timestamp shared by all events.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// NewBaseEvent stamps a base event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// Handler consumes events published under a subscribed name.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function into a Handler.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls the underlying function.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes domain events to subscribed handlers.
type Bus interface {
	// Publish fans the event out without waiting for handlers, so a
	// publisher's request path never blocks on side effects.
	Publish(ctx context.Context, event Event)

	// PublishSync runs all handlers inline and returns their joined error.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler under the name the matching
	// Event.EventName() returns.
	Subscribe(eventName string, handler Handler)
}
