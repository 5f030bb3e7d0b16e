package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrNilStore   = errors.New("cache: store is nil")
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
)

// KeyValueStore is the cache manager capability the Facade forwards to.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods should honor cancellation/deadlines where applicable.
// - Get reports presence separately from the value so a stored nil or zero
//   value is distinguishable from a miss. A miss is not an error.
// - Delete is idempotent: deleting an absent key is not an error.
type KeyValueStore interface {
	// Get retrieves a value. Returns (nil, false, nil) on miss.
	Get(ctx context.Context, key string) (any, bool, error)

	// Set stores a value. ttl <= 0 stores without expiry.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// Delete removes a value.
	Delete(ctx context.Context, key string) error

	// Reset removes every value owned by the store.
	Reset(ctx context.Context) error
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
