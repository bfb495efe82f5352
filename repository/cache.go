package repository

import (
	"context"
	"time"
)

// CacheRepository stores opaque payloads with a TTL. Get returns
// domain.ErrCacheMiss for absent keys.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}
