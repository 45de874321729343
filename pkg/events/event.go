package events

import "time"

// Event defines the contract for all pipeline events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "CHUNKS_INSERTED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// String returns a payload field, or "" when missing or not a string.
func (e BaseEvent) String(key string) string {
	v, _ := e.Data[key].(string)
	return v
}

// Bool returns a payload field, or false when missing or not a bool.
func (e BaseEvent) Bool(key string) bool {
	v, _ := e.Data[key].(bool)
	return v
}
