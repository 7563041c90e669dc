package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/narwhalmedia/fantasycards/pkg/interfaces"
)

// Broker is the outbound side of a message broker.
type Broker interface {
	Publish(ctx context.Context, topic string, data []byte) error
	Close() error
}

// MessageHandler handles one raw broker message.
type MessageHandler func(ctx context.Context, data []byte) error

// Envelope wraps an event for transport. Origin is the instance id of the
// publisher so instances can ignore their own messages.
type Envelope struct {
	ID          string          `json:"id"`
	Type        string          `json:"event_type"`
	AggregateID string          `json:"aggregate_id"`
	Origin      string          `json:"origin"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Data        json.RawMessage `json:"data"`
}

type identified interface {
	EventID() string
}

// NewEnvelope serialises event into an envelope stamped with origin.
func NewEnvelope(origin string, event interfaces.Event) (*Envelope, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", event.EventType(), err)
	}

	id := uuid.NewString()
	if ev, ok := event.(identified); ok && ev.EventID() != "" {
		id = ev.EventID()
	}

	return &Envelope{
		ID:          id,
		Type:        event.EventType(),
		AggregateID: event.AggregateID(),
		Origin:      origin,
		OccurredAt:  time.Unix(0, event.Timestamp()).UTC(),
		Data:        data,
	}, nil
}

// Encode returns the wire form of the envelope.
func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEnvelope parses the wire form of an envelope.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("decode envelope: missing event type")
	}
	return &env, nil
}
