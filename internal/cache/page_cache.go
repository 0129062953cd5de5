package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/salesdash/internal/config"
	"github.com/redis/go-redis/v9"
)

const pageKeyPrefix = "salesdash:page"

// PageCache stores rendered dashboard pages. Keys carry the table generation, so a
// page computed before a refresh is never returned after it.
type PageCache interface {
	Get(ctx context.Context, page string, generation uint64, selection string, dest any) (bool, error)
	Set(ctx context.Context, page string, generation uint64, selection string, value any) error
	InvalidateAll(ctx context.Context) error
}

type redisPageCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopPageCache struct{}

// NewPageCache returns a Redis-backed cache when caching is enabled and a no-op one otherwise.
func NewPageCache(cfg config.CacheConfig) (PageCache, error) {
	if !cfg.Enabled {
		return &noopPageCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisPageCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopPageCache() PageCache {
	return &noopPageCache{}
}

func (c *redisPageCache) Get(ctx context.Context, page string, generation uint64, selection string, dest any) (bool, error) {
	key := buildPageKey(page, generation, selection)

	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("decode %s page cache: %w", page, err)
	}
	return true, nil
}

func (c *redisPageCache) Set(ctx context.Context, page string, generation uint64, selection string, value any) error {
	key := buildPageKey(page, generation, selection)
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s page cache: %w", page, err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisPageCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, pageKeyPrefix, scanBatchSize)
}

func (n *noopPageCache) Get(ctx context.Context, page string, generation uint64, selection string, dest any) (bool, error) {
	return false, nil
}

func (n *noopPageCache) Set(ctx context.Context, page string, generation uint64, selection string, value any) error {
	return nil
}

func (n *noopPageCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildPageKey(page string, generation uint64, selection string) string {
	if selection == "" {
		selection = "default"
	}
	return fmt.Sprintf("%s:%s:%d:%s", pageKeyPrefix, page, generation, selection)
}
