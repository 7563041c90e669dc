package nats_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/narwhalmedia/fantasycards/internal/catalog/domain"
	"github.com/narwhalmedia/fantasycards/internal/infrastructure/events"
	"github.com/narwhalmedia/fantasycards/internal/infrastructure/events/nats"
	"github.com/narwhalmedia/fantasycards/pkg/logger"
)

type mockInvalidator struct {
	mock.Mock
}

func (m *mockInvalidator) Invalidate(ctx context.Context, kind domain.Kind) error {
	return m.Called(ctx, kind).Error(0)
}

func encoded(t *testing.T, origin string, kind domain.Kind) []byte {
	t.Helper()
	env, err := events.NewEnvelope(origin, domain.NewCatalogRefreshed(kind, 42))
	require.NoError(t, err)
	data, err := env.Encode()
	require.NoError(t, err)
	return data
}

func TestInvalidator_HandleMessage(t *testing.T) {
	ctx := context.Background()
	log := logger.NewFromZap(zaptest.NewLogger(t))

	t.Run("peer refresh invalidates the kind", func(t *testing.T) {
		target := new(mockInvalidator)
		target.On("Invalidate", ctx, domain.KindTV).Return(nil).Once()

		inv := nats.NewInvalidator("catalog.refreshed", "self", target, log)
		require.NoError(t, inv.HandleMessage(ctx, encoded(t, "peer", domain.KindTV)))
		target.AssertExpectations(t)
	})

	t.Run("own messages are ignored", func(t *testing.T) {
		target := new(mockInvalidator)

		inv := nats.NewInvalidator("catalog.refreshed", "self", target, log)
		require.NoError(t, inv.HandleMessage(ctx, encoded(t, "self", domain.KindTV)))
		target.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
	})

	t.Run("malformed message", func(t *testing.T) {
		inv := nats.NewInvalidator("catalog.refreshed", "self", new(mockInvalidator), log)
		assert.Error(t, inv.HandleMessage(ctx, []byte("{")))
	})
}

func TestPublisher_RoundTrip(t *testing.T) {
	log := logger.NewFromZap(zaptest.NewLogger(t))

	// Skip if NATS is not available
	client, cleanup, err := nats.NewClient(nats.Config{URL: "nats://localhost:4222", Name: "test-publisher"}, log)
	if err != nil {
		t.Skip("NATS not available:", err)
	}
	defer cleanup()

	target := new(mockInvalidator)
	done := make(chan struct{})
	target.On("Invalidate", mock.Anything, domain.KindBook).Return(nil).Run(func(mock.Arguments) { close(done) }).Once()

	inv := nats.NewInvalidator("test.catalog.refreshed", "subscriber", target, log)
	require.NoError(t, inv.Start(client))

	pub := nats.NewPublisher(client)
	require.NoError(t, pub.Publish(context.Background(), "test.catalog.refreshed", encoded(t, "publisher", domain.KindBook)))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("invalidation not received")
	}
}
