package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/todoboard/domain"
	"github.com/fastygo/todoboard/repository"
)

const scanBatch = 100

type cacheRepository struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewCacheRepository creates a Redis-backed cache. Keys are namespaced with
// namespace; ttl is the default for Set calls without one.
func NewCacheRepository(client *redislib.Client, namespace string, ttl time.Duration) repository.CacheRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &cacheRepository{
		client: client,
		prefix: namespace,
		ttl:    ttl,
	}
}

func (r *cacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrCacheMiss
		}
		return nil, err
	}
	return result, nil
}

func (r *cacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.ttl
	}
	return r.client.Set(ctx, r.key(key), value, ttl).Err()
}

func (r *cacheRepository) DeletePrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	pattern := r.key(prefix) + "*"
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (r *cacheRepository) key(id string) string {
	return fmt.Sprintf("%s%s", r.prefix, id)
}
