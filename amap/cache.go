package amap

import (
	"context"
	"errors"
	"fmt"
	"github.com/redis/go-redis/v9"
	"hash/fnv"
	"time"
)

const cacheTTL = 24 * time.Hour

// Cache stores encoded search results.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func cacheKey(keywords, city string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(keywords))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(city))
	return fmt.Sprintf("photo-geotag:amap:%x", h.Sum64())
}

type RedisCache struct {
	rdb redis.Cmdable
}

func NewRedisCache(rdb redis.Cmdable) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}
