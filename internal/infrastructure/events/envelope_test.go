package events_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narwhalmedia/fantasycards/internal/catalog/domain"
	"github.com/narwhalmedia/fantasycards/internal/infrastructure/events"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	ev := domain.NewCatalogRefreshed(domain.KindBook, 187)

	env, err := events.NewEnvelope("instance-a", ev)
	require.NoError(t, err)
	assert.Equal(t, ev.EventID(), env.ID)
	assert.Equal(t, domain.EventTypeCatalogRefreshed, env.Type)
	assert.Equal(t, "book", env.AggregateID)
	assert.Equal(t, "instance-a", env.Origin)

	data, err := env.Encode()
	require.NoError(t, err)

	decoded, err := events.DecodeEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, env.ID, decoded.ID)
	assert.Equal(t, "instance-a", decoded.Origin)

	var payload domain.CatalogRefreshed
	require.NoError(t, json.Unmarshal(decoded.Data, &payload))
	assert.Equal(t, domain.KindBook, payload.Kind)
	assert.Equal(t, 187, payload.Count)
}

func TestDecodeEnvelopeRejectsGarbage(t *testing.T) {
	_, err := events.DecodeEnvelope([]byte("not json"))
	assert.Error(t, err)

	_, err = events.DecodeEnvelope([]byte(`{"id":"x"}`))
	assert.Error(t, err)
}
