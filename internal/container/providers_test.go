package container

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narwhalmedia/fantasycards/internal/catalog/domain"
	"github.com/narwhalmedia/fantasycards/pkg/config"
	apperrors "github.com/narwhalmedia/fantasycards/pkg/errors"
	"github.com/narwhalmedia/fantasycards/pkg/logger"
)

func TestInitializeCatalog(t *testing.T) {
	t.Run("missing TMDB key", func(t *testing.T) {
		cfg := config.GetDefaultCatalogConfig()

		_, _, err := InitializeCatalog(cfg, logger.NewNoop())
		require.Error(t, err)
		assert.True(t, apperrors.IsConfiguration(err))
	})

	t.Run("wires every source without a broker", func(t *testing.T) {
		cfg := config.GetDefaultCatalogConfig()
		cfg.TMDB.APIKey = "test-key"
		cfg.Pagination.CursorEncryptionKey = "cursor-secret"

		c, cleanup, err := InitializeCatalog(cfg, logger.NewNoop())
		require.NoError(t, err)
		defer cleanup()

		for _, kind := range domain.Kinds {
			_, err := c.Aggregator.Source(kind)
			assert.NoError(t, err, kind)
		}
		assert.Nil(t, c.Events.Broker)
		assert.NotEmpty(t, c.Events.InstanceID)
		assert.NotNil(t, c.Handler.Routes())
	})
}

func TestProvideCursorEncoder(t *testing.T) {
	cfg := config.GetDefaultCatalogConfig()
	enc, err := ProvideCursorEncoder(cfg)
	require.NoError(t, err)
	assert.Nil(t, enc)

	cfg.Pagination.CursorEncryptionKey = "k"
	enc, err = ProvideCursorEncoder(cfg)
	require.NoError(t, err)
	assert.NotNil(t, enc)
}

func TestNewSitemapStoreLocal(t *testing.T) {
	out := filepath.Join(t.TempDir(), "public", "sitemap.xml")
	store, key, err := NewSitemapStore(context.Background(), config.SitemapConfig{Output: out}, logger.NewNoop())
	require.NoError(t, err)
	assert.Equal(t, "sitemap.xml", key)

	require.NoError(t, store.Put(context.Background(), key, "application/xml", strings.NewReader("<urlset/>")))
	assert.Equal(t, out, store.Location(key))
}
