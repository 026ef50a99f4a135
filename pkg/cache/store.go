package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Store.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Store is the key/value backend the provider wraps. Implementations must be
// safe for concurrent use; exactly one instance exists per process.
type Store interface {
	// Get returns the raw value for key, or ErrCacheMiss.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key with the given TTL. A zero TTL never
	// reaches the store; the provider handles bypass above this layer.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Scan returns a batch of keys matching the glob pattern starting at
	// cursor, plus the next cursor. A returned cursor of 0 means the scan
	// is complete.
	Scan(ctx context.Context, cursor uint64, pattern string, count int64) (uint64, []string, error)

	// Del removes the given keys, pipelining where the backend supports it.
	Del(ctx context.Context, keys ...string) error

	// Close releases the backend connection.
	Close() error
}
