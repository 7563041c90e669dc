package handlers

import (
	"context"
	"fmt"

	"github.com/narwhalmedia/fantasycards/internal/catalog/domain"
	"github.com/narwhalmedia/fantasycards/internal/infrastructure/events"
	"github.com/narwhalmedia/fantasycards/pkg/interfaces"
)

// CatalogEventForwarder relays in-process catalog events to a message
// broker so other instances and downstream consumers can react.
type CatalogEventForwarder struct {
	broker     events.Broker
	subject    string
	instanceID string
	logger     interfaces.Logger
}

// NewCatalogEventForwarder creates a forwarder publishing on subject.
func NewCatalogEventForwarder(broker events.Broker, subject, instanceID string, logger interfaces.Logger) *CatalogEventForwarder {
	return &CatalogEventForwarder{
		broker:     broker,
		subject:    subject,
		instanceID: instanceID,
		logger:     logger,
	}
}

// Handle forwards one event.
func (h *CatalogEventForwarder) Handle(ctx context.Context, event interfaces.Event) error {
	env, err := events.NewEnvelope(h.instanceID, event)
	if err != nil {
		return err
	}
	data, err := env.Encode()
	if err != nil {
		return fmt.Errorf("encode %s: %w", event.EventType(), err)
	}
	if err := h.broker.Publish(ctx, h.subject, data); err != nil {
		return fmt.Errorf("forward %s: %w", event.EventType(), err)
	}

	h.logger.Debug("Forwarded catalog event",
		interfaces.String("event_id", env.ID),
		interfaces.String("event_type", env.Type),
		interfaces.String("aggregate_id", env.AggregateID),
		interfaces.String("subject", h.subject))
	return nil
}

// EventType returns the event type this handler processes.
func (h *CatalogEventForwarder) EventType() string {
	return domain.EventTypeCatalogRefreshed
}
