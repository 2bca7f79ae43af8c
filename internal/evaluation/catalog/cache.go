package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Cache stores built indexes per tenant. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*Index, bool, error)
	Set(ctx context.Context, tenantID uuid.UUID, idx *Index) error
	Invalidate(ctx context.Context, tenantID uuid.UUID) error
}

// NopCache never stores anything; every load hits the source.
type NopCache struct{}

func (NopCache) Get(context.Context, uuid.UUID) (*Index, bool, error) { return nil, false, nil }
func (NopCache) Set(context.Context, uuid.UUID, *Index) error         { return nil }
func (NopCache) Invalidate(context.Context, uuid.UUID) error          { return nil }

const redisKeyPrefix = "evaluation:catalog:"

// RedisCache keeps JSON-encoded indexes in Redis with a TTL.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) key(tenantID uuid.UUID) string {
	return redisKeyPrefix + tenantID.String()
}

func (c *RedisCache) Get(ctx context.Context, tenantID uuid.UUID) (*Index, bool, error) {
	raw, err := c.client.Get(ctx, c.key(tenantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("catalog cache get: %w", err)
	}

	var idx Index
	if err := json.Unmarshal(raw, &idx); err != nil {
		// A corrupt entry is a miss; the next Set overwrites it.
		return nil, false, nil
	}
	idx.prepare()
	return &idx, true, nil
}

func (c *RedisCache) Set(ctx context.Context, tenantID uuid.UUID, idx *Index) error {
	raw, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("catalog cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.key(tenantID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("catalog cache set: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	if err := c.client.Del(ctx, c.key(tenantID)).Err(); err != nil {
		return fmt.Errorf("catalog cache invalidate: %w", err)
	}
	return nil
}

var (
	_ Cache = NopCache{}
	_ Cache = (*RedisCache)(nil)
)
