package interfaces

import (
	"context"
	"time"
)

// Cache defines a generic caching interface.
type Cache interface {
	// Get retrieves a value from the cache
	Get(ctx context.Context, key string) (interface{}, error)

	// Set stores a value in the cache with a TTL
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes a value from the cache
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every value whose key starts with prefix
	DeletePrefix(ctx context.Context, prefix string) error
}
