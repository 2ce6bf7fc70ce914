package core

import (
	"log/slog"

	"github.com/google/uuid"
)

// Event carries an operation's key identifiers to external observers.
// IDs are time-sortable UUIDv7 strings assigned at publish time.
type Event struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Kind      string    `json:"kind"`
	RecordID  uint32    `json:"record_id,omitempty"`
	Principal Principal `json:"principal,omitempty"`
	Amount    int64     `json:"amount,omitempty"`
	At        int64     `json:"at"`
}

// EventSink receives events emitted by committed mutations.
// Fire-and-forget: the core owes no delivery guarantee.
type EventSink interface {
	Publish(event Event)
}

// NopSink discards all events.
type NopSink struct{}

// Publish implements EventSink.
func (NopSink) Publish(Event) {}

// LogSink publishes events as structured log lines. Useful for local
// deployments where no event bus is attached.
type LogSink struct {
	Logger *slog.Logger
}

// Publish implements EventSink.
func (s LogSink) Publish(ev Event) {
	s.Logger.Info("event",
		"topic", ev.Topic,
		"kind", ev.Kind,
		"record_id", ev.RecordID,
		"principal", string(ev.Principal),
		"amount", ev.Amount,
	)
}

// newEventID returns a fresh UUIDv7 string.
func newEventID() string {
	return uuid.Must(uuid.NewV7()).String()
}
