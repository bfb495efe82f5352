package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fastygo/todoboard/domain"
	"github.com/fastygo/todoboard/repository"
)

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

type cacheRepository struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewCacheRepository returns an in-process CacheRepository used when Redis is
// not configured.
func NewCacheRepository() repository.CacheRepository {
	return &cacheRepository{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (r *cacheRepository) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && !r.now().Before(entry.expiresAt) {
		delete(r.entries, key)
		return nil, domain.ErrCacheMiss
	}
	return append([]byte(nil), entry.value...), nil
}

func (r *cacheRepository) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := cacheEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expiresAt = r.now().Add(ttl)
	}
	r.entries[key] = entry
	return nil
}

func (r *cacheRepository) DeletePrefix(_ context.Context, prefix string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key := range r.entries {
		if strings.HasPrefix(key, prefix) {
			delete(r.entries, key)
		}
	}
	return nil
}
