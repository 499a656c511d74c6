// Package kvstore provides the key-value store contract used by the
// exact-match cache tier. Any store offering these four operations with
// sub-10ms typical latency satisfies the contract.
package kvstore

import (
	"context"
	"time"
)

// Store is the key-value store contract.
type Store interface {
	// Get retrieves a value by key. Returns ok=false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores a value with a TTL. The write is durable once Set returns.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes a key.
	Delete(ctx context.Context, key string) error

	// DeleteByPrefix removes every key starting with the prefix and
	// returns the number of keys removed.
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)

	// Close releases the underlying connection.
	Close() error
}
