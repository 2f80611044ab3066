// Package cache stores serialized snapshots under string keys with a TTL.
package cache

import (
	"context"
	"time"
)

// Cache is implemented by MemoryCache and RedisCache. A zero ttl passed to
// Set means the backend default.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
