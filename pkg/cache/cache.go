// Package cache stores generated traces and rendered artifacts.
//
// # Backends
//
//   - [FileCache]: JSON entry files under a directory, for the CLI
//   - [RedisCache]: shared cache for the HTTP server
//   - [NullCache]: disables caching
//
// All backends implement [Cache]. [Instrument] wraps any of them so that
// hits, misses and writes reach the registered observability hooks.
//
// # Keys
//
// A [Keyer] derives keys from content hashes, so identical input always
// maps to the same entry:
//
//	k := cache.NewDefaultKeyer()
//	key := k.TraceKey(cache.Hash([]byte(canonical)), "A")
//	data, hit, err := c.Get(ctx, key)
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/pathstep/pkg/observability"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the stored bytes and true, or false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// DefaultTTL is the expiry used when none is configured.
const DefaultTTL = 7 * 24 * time.Hour

// Instrument wraps c so that every operation reports to observability.Cache().
// The key type reported is the key prefix before the first colon.
func Instrument(c Cache) Cache {
	if c == nil {
		return nil
	}
	if _, ok := c.(*instrumented); ok {
		return c
	}
	return &instrumented{Cache: c}
}

type instrumented struct {
	Cache
}

func (c *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := c.Cache.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, keyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, keyType(key))
		}
	}
	return data, hit, err
}

func (c *instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := c.Cache.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	}
	return err
}

func keyType(key string) string {
	// Scoped keys carry extra prefixes; the type is the last segment before the hash.
	parts := strings.Split(key, ":")
	if len(parts) < 2 {
		return "unknown"
	}
	return parts[len(parts)-2]
}
