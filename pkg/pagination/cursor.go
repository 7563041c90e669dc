package pagination

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// Cursor records how many listing pages a client has revealed. Listings
// grow by whole pages from the top, so the cursor carries a page count and
// the signature of the filter it was issued for rather than an offset.
type Cursor struct {
	Pages     int       `json:"pages"`
	Signature string    `json:"sig"`
	Timestamp time.Time `json:"timestamp"`
}

// CursorEncoder handles cursor encryption/decryption
type CursorEncoder struct {
	cipher cipher.Block
}

// NewCursorEncoder creates a new cursor encoder with the given key
func NewCursorEncoder(key []byte) (*CursorEncoder, error) {
	// Ensure key is exactly 32 bytes for AES-256
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes for AES-256")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	return &CursorEncoder{
		cipher: block,
	}, nil
}

// EncodeCursor encrypts and encodes a cursor to a base64 string
func (e *CursorEncoder) EncodeCursor(cursor *Cursor) (string, error) {
	// Marshal cursor to JSON
	plaintext, err := json.Marshal(cursor)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}

	// Create GCM cipher
	gcm, err := cipher.NewGCM(e.cipher)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	// Create nonce
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Encrypt
	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)

	// Encode to base64
	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

// DecodeCursor decrypts and decodes a cursor from a base64 string
func (e *CursorEncoder) DecodeCursor(encoded string) (*Cursor, error) {
	// Decode from base64
	ciphertext, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}

	// Create GCM cipher
	gcm, err := cipher.NewGCM(e.cipher)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	// Extract nonce
	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]

	// Decrypt
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	// Unmarshal cursor
	var cursor Cursor
	if err := json.Unmarshal(plaintext, &cursor); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cursor: %w", err)
	}

	return &cursor, nil
}

// NewWindowCursor creates a cursor for a window of pages.
func NewWindowCursor(pages int, signature string) *Cursor {
	return &Cursor{
		Pages:     pages,
		Signature: signature,
		Timestamp: time.Now(),
	}
}

// IsExpired checks if the cursor is older than the given duration
func (c *Cursor) IsExpired(maxAge time.Duration) bool {
	return time.Since(c.Timestamp) > maxAge
}

// ErrSignatureMismatch is returned when a token is replayed against a
// different filter than it was issued for.
var ErrSignatureMismatch = errors.New("page token does not match the current filter")

// PagesFromToken resolves a page token to a window size. An empty token
// means the first page.
func PagesFromToken(encoder *CursorEncoder, pageToken, signature string, maxAge time.Duration) (int, error) {
	if pageToken == "" {
		return 1, nil
	}

	cursor, err := encoder.DecodeCursor(pageToken)
	if err != nil {
		return 0, fmt.Errorf("invalid page token: %w", err)
	}

	if cursor.IsExpired(maxAge) {
		return 0, fmt.Errorf("page token expired")
	}
	if cursor.Signature != signature {
		return 0, ErrSignatureMismatch
	}
	if cursor.Pages < 1 {
		return 0, fmt.Errorf("invalid page token: non-positive window")
	}

	return cursor.Pages, nil
}

// NextPageToken returns the token revealing one more page, or "" when the
// current window already shows everything.
func NextPageToken(encoder *CursorEncoder, pages int, signature string, hasMore bool) (string, error) {
	if !hasMore {
		return "", nil
	}
	return encoder.EncodeCursor(NewWindowCursor(pages+1, signature))
}
