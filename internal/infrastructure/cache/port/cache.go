package port

import (
	"context"
	"time"
)

// Cache defines the minimal contract for a key-value cache used by the application.
// Implementations should be concurrency-safe.
// All methods must be context-aware to allow caller-driven timeouts/cancellation.
//
// Note: Values are stored as strings to keep the port generic and avoid coupling
// to serialization concerns.
type Cache interface {
	// Get fetches the value for key. Misses are reported as ("", ErrMiss);
	// a non-nil error other than ErrMiss means a transport or server failure.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value at key with the provided TTL. Zero or negative TTL means
	// no expiration (persist until evicted).
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// SetNX stores value at key only if the key does not already exist, with the
	// provided TTL, as a single atomic operation. It reports whether the key was
	// set. An error means the outcome is unknown; callers must not treat an
	// errored call as "set".
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)

	// Del removes one or more keys and returns the number of keys removed.
	Del(ctx context.Context, keys ...string) (int64, error)

	// Ping verifies connectivity with the cache backend.
	Ping(ctx context.Context) error

	// Close releases any resources held by the cache.
	Close() error
}

// ErrMiss should be used by adapters to signal a cache miss in a typed way.
// This allows callers to differentiate misses from transport errors if desired.
var ErrMiss = errMiss{}

type errMiss struct{}

func (e errMiss) Error() string { return "cache: miss" }
