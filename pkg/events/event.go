package events

import (
	"time"

	"github.com/google/uuid"
)

// BaseEvent carries the metadata every published event shares.
type BaseEvent struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Time  int64  `json:"timestamp"`
	AggID string `json:"aggregate_id"`
}

// NewBaseEvent stamps a fresh event id and the current time.
func NewBaseEvent(eventType, aggregateID string) BaseEvent {
	return BaseEvent{
		ID:    uuid.NewString(),
		Type:  eventType,
		Time:  time.Now().UnixNano(),
		AggID: aggregateID,
	}
}

// EventType returns the type of the event
func (e BaseEvent) EventType() string {
	return e.Type
}

// Timestamp returns when the event occurred
func (e BaseEvent) Timestamp() int64 {
	return e.Time
}

// AggregateID returns the ID of the aggregate that produced the event
func (e BaseEvent) AggregateID() string {
	return e.AggID
}

// EventID returns the unique id of this occurrence.
func (e BaseEvent) EventID() string {
	return e.ID
}
