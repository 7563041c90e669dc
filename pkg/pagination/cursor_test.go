package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorEncoder(t *testing.T) {
	key := []byte("test-key-for-pagination-12345678") // 32 bytes
	encoder, err := NewCursorEncoder(key)
	require.NoError(t, err)

	t.Run("encode and decode window cursor", func(t *testing.T) {
		original := NewWindowCursor(3, "movie|genre=14")

		encoded, err := encoder.EncodeCursor(original)
		require.NoError(t, err)
		assert.NotEmpty(t, encoded)

		decoded, err := encoder.DecodeCursor(encoded)
		require.NoError(t, err)
		assert.Equal(t, 3, decoded.Pages)
		assert.Equal(t, "movie|genre=14", decoded.Signature)
		assert.WithinDuration(t, original.Timestamp, decoded.Timestamp, time.Second)
	})

	t.Run("invalid key length", func(t *testing.T) {
		_, err := NewCursorEncoder([]byte("short-key"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "32 bytes")
	})

	t.Run("invalid encoded cursor", func(t *testing.T) {
		_, err := encoder.DecodeCursor("invalid-base64")
		require.Error(t, err)
	})

	t.Run("cursor expiration", func(t *testing.T) {
		cursor := &Cursor{
			Pages:     2,
			Timestamp: time.Now().Add(-25 * time.Hour),
		}

		assert.True(t, cursor.IsExpired(24*time.Hour))
		assert.False(t, cursor.IsExpired(48*time.Hour))
	})
}

func TestWindowTokens(t *testing.T) {
	key := []byte("test-key-for-pagination-12345678")
	encoder, err := NewCursorEncoder(key)
	require.NoError(t, err)

	t.Run("empty token is the first page", func(t *testing.T) {
		pages, err := PagesFromToken(encoder, "", "sig", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, 1, pages)
	})

	t.Run("next token grows the window by one page", func(t *testing.T) {
		token, err := NextPageToken(encoder, 2, "sig", true)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		pages, err := PagesFromToken(encoder, token, "sig", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, 3, pages)
	})

	t.Run("no token when nothing is left", func(t *testing.T) {
		token, err := NextPageToken(encoder, 5, "sig", false)
		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("token bound to its filter", func(t *testing.T) {
		token, err := NextPageToken(encoder, 1, "book|subject=dark_fantasy", true)
		require.NoError(t, err)

		_, err = PagesFromToken(encoder, token, "book|subject=urban_fantasy", time.Hour)
		assert.ErrorIs(t, err, ErrSignatureMismatch)
	})

	t.Run("expired token", func(t *testing.T) {
		cursor := &Cursor{Pages: 2, Signature: "sig", Timestamp: time.Now().Add(-25 * time.Hour)}
		token, err := encoder.EncodeCursor(cursor)
		require.NoError(t, err)

		_, err = PagesFromToken(encoder, token, "sig", 24*time.Hour)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expired")
	})
}
