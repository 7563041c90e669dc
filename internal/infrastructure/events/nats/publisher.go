package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/narwhalmedia/fantasycards/internal/catalog/domain"
	"github.com/narwhalmedia/fantasycards/internal/infrastructure/events"
	"github.com/narwhalmedia/fantasycards/pkg/interfaces"
)

// Publisher is the events.Broker backed by core NATS.
type Publisher struct {
	client *Client
}

// NewPublisher creates a new NATS broker publisher.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) Publish(ctx context.Context, subject string, data []byte) error {
	return p.client.Publish(ctx, subject, data)
}

func (p *Publisher) Close() error {
	return p.client.Close()
}

// CatalogInvalidator drops a cached catalog.
type CatalogInvalidator interface {
	Invalidate(ctx context.Context, kind domain.Kind) error
}

// Invalidator listens for catalog.refreshed messages from other instances
// and drops the matching local catalog so the next read re-aggregates.
type Invalidator struct {
	subject    string
	instanceID string
	target     CatalogInvalidator
	logger     interfaces.Logger
}

// NewInvalidator creates an invalidator for messages on subject.
func NewInvalidator(subject, instanceID string, target CatalogInvalidator, logger interfaces.Logger) *Invalidator {
	return &Invalidator{subject: subject, instanceID: instanceID, target: target, logger: logger}
}

// Start subscribes the invalidator on client.
func (i *Invalidator) Start(client *Client) error {
	_, err := client.Subscribe(i.subject, i.HandleMessage)
	return err
}

// HandleMessage processes one raw message.
func (i *Invalidator) HandleMessage(ctx context.Context, data []byte) error {
	env, err := events.DecodeEnvelope(data)
	if err != nil {
		return err
	}
	if env.Origin == i.instanceID || env.Type != domain.EventTypeCatalogRefreshed {
		return nil
	}

	var payload domain.CatalogRefreshed
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	kind, err := domain.ParseKind(string(payload.Kind))
	if err != nil {
		return err
	}

	if err := i.target.Invalidate(ctx, kind); err != nil {
		return err
	}
	i.logger.Info("Invalidated catalog from peer refresh",
		interfaces.String("kind", string(kind)),
		interfaces.String("origin", env.Origin))
	return nil
}
