package history

import (
	"context"
	"time"
)

// EventType defines the kind of lifecycle event.
type EventType string

const (
	EventStart       EventType = "start"
	EventStop        EventType = "stop"
	EventStartFailed EventType = "start_failed"
	EventStopFailed  EventType = "stop_failed"
)

// Event is one lifecycle transition of a named command. ID is the OS
// identifier (PID or window id) reported by the launch, zero on failures.
type Event struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Session    string    `json:"session"`
	Name       string    `json:"name"`
	ID         int       `json:"id"`
	Command    string    `json:"command,omitempty"`
	Platform   string    `json:"platform"`
	Error      string    `json:"error,omitempty"`
}

// Sink is a destination for history events.
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
}

// Reader is implemented by sinks that can list what they stored, newest first.
type Reader interface {
	Recent(ctx context.Context, limit int) ([]Event, error)
}
