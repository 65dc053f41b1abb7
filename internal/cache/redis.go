package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/krishnaqnq/todo/pkg/logger"
)

// TodoCache holds each owner's rendered todo list as raw JSON bytes so the
// hot list path can skip both the database and re-marshaling. A nil *TodoCache
// is valid and behaves as a permanent miss.
type TodoCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New builds a cache from a redis URL. Returns nil (cache disabled) when the
// URL is empty or unreachable; callers tolerate a nil cache.
func New(ctx context.Context, redisURL string, poolSize, ttlSeconds int) *TodoCache {
	if redisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Error(ctx, "Invalid REDIS_URL", "error", err)
		return nil
	}
	opts.PoolSize = poolSize
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn(ctx, "Redis unavailable, cache disabled", "error", err)
		return nil
	}
	logger.Info(ctx, "Redis cache initialized", "pool_size", poolSize)
	return &TodoCache{client: client, ttl: time.Duration(ttlSeconds) * time.Second}
}

func listKey(ownerID string) string {
	return "todos:owner:" + ownerID
}

// GetList returns the cached list payload for ownerID, or (nil, false).
func (c *TodoCache) GetList(ctx context.Context, ownerID string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	b, err := c.client.Get(ctx, listKey(ownerID)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Debug(ctx, "Redis get failed", "error", err)
		return nil, false
	}
	return b, true
}

// SetList stores the list payload for ownerID with the configured TTL.
func (c *TodoCache) SetList(ctx context.Context, ownerID string, payload []byte) {
	if c == nil {
		return
	}
	if err := c.client.Set(ctx, listKey(ownerID), payload, c.ttl).Err(); err != nil {
		logger.Debug(ctx, "Redis set failed", "error", err)
	}
}

// InvalidateList drops ownerID's cached list so the next read hits the
// database. Called synchronously after every mutation so read-after-write
// holds for the writer.
func (c *TodoCache) InvalidateList(ctx context.Context, ownerID string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, listKey(ownerID)).Err(); err != nil {
		logger.Debug(ctx, "Redis invalidate failed", "error", err)
	}
}
