// Package cache stores translated documents and rendered artifacts.
//
// # Backends
//
// Three [Cache] implementations are provided:
//
//   - [FileCache]: one JSON entry file per key under a local directory (CLI default)
//   - [RedisCache]: shared cache for several machines translating the same assets
//   - [NullCache]: never stores anything (--no-cache)
//
// # Keys
//
// A [Keyer] derives cache keys from content. Document keys hash the
// canonical JSON encoding of the source material together with every
// option that changes the translation, so an edited graph or a switch to
// strict mode never hits a stale entry. Artifact keys hash the document
// key together with the output format.
//
//	keyer := cache.NewDefaultKeyer()
//	key, err := keyer.DocumentKey(material, cache.DocumentKeyOpts{Strict: true})
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with expiry.
//
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Entry lifetimes.
const (
	// TTLDocument is the lifetime of a translated document.
	TTLDocument = 7 * 24 * time.Hour

	// TTLArtifact is the lifetime of a rendered artifact.
	TTLArtifact = 7 * 24 * time.Hour
)
