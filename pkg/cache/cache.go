// Package cache provides pluggable byte caches for computed chart artifacts.
//
// Rendering the same dataset with the same options always produces the same
// bytes, so artifacts are cached under content-derived keys: hash the dataset,
// hash the options, and the result can be replayed without recomputing the
// layout.
package cache

import (
	"context"
	"time"
)

// Default TTLs per entry kind. Layouts and artifacts are pure functions of
// their keys, so expiry only bounds disk growth.
const (
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 30 * 24 * time.Hour
)

// Cache stores opaque byte values under string keys with optional expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the cached value and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any underlying resources.
	Close() error
}
