package events

import (
	"context"
	"sync"

	"github.com/narwhalmedia/fantasycards/pkg/interfaces"
)

// InMemoryEventBus dispatches events to handlers in the same process.
// Handler errors are logged and never reach the publisher.
type InMemoryEventBus struct {
	mu       sync.RWMutex
	handlers map[string][]interfaces.EventHandler
	inflight sync.WaitGroup
	logger   interfaces.Logger
}

// NewInMemoryEventBus creates an empty bus.
func NewInMemoryEventBus(logger interfaces.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		handlers: make(map[string][]interfaces.EventHandler),
		logger:   logger,
	}
}

// Publish runs every handler subscribed to the event's type, in
// subscription order, before returning.
func (eb *InMemoryEventBus) Publish(ctx context.Context, event interfaces.Event) error {
	eb.mu.RLock()
	handlers := eb.handlers[event.EventType()]
	eb.mu.RUnlock()

	for _, h := range handlers {
		if err := h.Handle(ctx, event); err != nil {
			eb.logger.Error("Event handler failed",
				interfaces.String("event_type", event.EventType()),
				interfaces.String("aggregate_id", event.AggregateID()),
				interfaces.Error(err))
		}
	}
	return nil
}

// PublishAsync delivers the event on its own goroutine. Delivery is
// detached from ctx cancellation; Stop waits for it.
func (eb *InMemoryEventBus) PublishAsync(ctx context.Context, event interfaces.Event) {
	ctx = context.WithoutCancel(ctx)
	eb.inflight.Add(1)
	go func() {
		defer eb.inflight.Done()
		_ = eb.Publish(ctx, event)
	}()
}

// Subscribe registers a handler for eventType.
func (eb *InMemoryEventBus) Subscribe(eventType string, handler interfaces.EventHandler) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	eb.logger.Debug("Event handler subscribed",
		interfaces.String("event_type", eventType),
		interfaces.String("handler", handler.EventType()))
	return nil
}

// Stop waits for asynchronous deliveries to finish. It may be called
// more than once.
func (eb *InMemoryEventBus) Stop() error {
	eb.inflight.Wait()
	return nil
}
