package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tush00nka/filestash/internal/model"
)

// UsageCache keeps computed space usage reports per owner.
type UsageCache interface {
	// Get returns apperr.ErrNotFound on a cache miss.
	Get(ctx context.Context, ownerID string) (*model.SpaceUsage, error)
	Set(ctx context.Context, ownerID string, usage *model.SpaceUsage) error
	Invalidate(ctx context.Context, ownerID string) error
}

type usageCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewUsageCache(rdb *redis.Client, ttl time.Duration) UsageCache {
	return &usageCache{rdb: rdb, ttl: ttl}
}

func (c *usageCache) key(ownerID string) string {
	return fmt.Sprintf("user:%s:usage", ownerID)
}

func (c *usageCache) Get(ctx context.Context, ownerID string) (*model.SpaceUsage, error) {
	data, err := c.rdb.Get(ctx, c.key(ownerID)).Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to get usage from redis: %w", translateRedis(err))
	}

	var usage model.SpaceUsage
	if err := json.Unmarshal(data, &usage); err != nil {
		return nil, fmt.Errorf("failed to unmarshal usage: %w", err)
	}
	return &usage, nil
}

func (c *usageCache) Set(ctx context.Context, ownerID string, usage *model.SpaceUsage) error {
	data, err := json.Marshal(usage)
	if err != nil {
		return fmt.Errorf("failed to marshal usage: %w", err)
	}

	if err := c.rdb.Set(ctx, c.key(ownerID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save usage to redis: %w", translateRedis(err))
	}
	return nil
}

func (c *usageCache) Invalidate(ctx context.Context, ownerID string) error {
	if err := c.rdb.Del(ctx, c.key(ownerID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate usage: %w", translateRedis(err))
	}
	return nil
}
