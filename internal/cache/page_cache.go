package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// IndexPrefix namespaces cached index pages.
const IndexPrefix = "index:"

// IndexPageKey is the cache key for page n of the index listing.
func IndexPageKey(n int) string {
	return fmt.Sprintf("%spage:%d", IndexPrefix, n)
}

// PageCache is the read-through store for rendered listing pages.
type PageCache interface {
	// Get decodes the value at key into dest and reports whether it was present.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Invalidate drops every key starting with prefix.
	Invalidate(ctx context.Context, prefix string) error
}

// RedisPageCache stores JSON-encoded pages in Redis.
type RedisPageCache struct {
	client *redis.Client
}

// NewRedisPageCache wraps client. A nil client yields a NopPageCache.
func NewRedisPageCache(client *redis.Client) PageCache {
	if client == nil {
		return NopPageCache{}
	}
	return &RedisPageCache{client: client}
}

func (c *RedisPageCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// A stale or foreign payload is a miss; drop it so it is rebuilt.
		_ = c.client.Del(ctx, key).Err()
		return false, nil
	}
	return true, nil
}

func (c *RedisPageCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cached page: %w", err)
	}
	return c.client.Set(ctx, key, raw, ttl).Err()
}

func (c *RedisPageCache) Invalidate(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// NopPageCache never stores anything.
type NopPageCache struct{}

func (NopPageCache) Get(context.Context, string, any) (bool, error) { return false, nil }

func (NopPageCache) Set(context.Context, string, any, time.Duration) error { return nil }

func (NopPageCache) Invalidate(context.Context, string) error { return nil }
