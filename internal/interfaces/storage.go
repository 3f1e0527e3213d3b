package interfaces

import (
	"context"
	"time"
)

// CacheStorage persists fetch payloads keyed by cache key with a TTL.
// Payloads are opaque byte blobs; the serialization format is the caller's
// concern. Implementations must treat read errors as misses and swallow
// write errors (a lost cache write is not fatal).
type CacheStorage interface {
	// Get returns the payload for key, or ok=false when the key is absent
	// or its entry has aged past its TTL. Expired entries are removed on
	// the access that observes expiry.
	Get(ctx context.Context, key string) (payload []byte, ok bool)

	// Set stores payload under key with the given TTL, replacing any
	// existing entry.
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error

	// InvalidateExpired proactively removes all expired entries and
	// returns the number reclaimed.
	InvalidateExpired(ctx context.Context) (int, error)

	// Close releases the underlying store.
	Close() error
}
