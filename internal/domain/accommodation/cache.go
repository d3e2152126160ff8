package accommodation

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stayfinder/stayfinder-api/internal/domain/catalog"
	"github.com/stayfinder/stayfinder-api/internal/pkg/logger"
)

const (
	cacheKeyPrefix  = "stayfinder:accommodation:"
	DefaultCacheTTL = 5 * time.Minute
)

// Cache stores normalised accommodation records.
type Cache interface {
	Get(ctx context.Context, id int64) (*catalog.Accommodation, bool, error)
	Set(ctx context.Context, acc *catalog.Accommodation) error
}

// NoopCache never hits.
type NoopCache struct{}

func (NoopCache) Get(context.Context, int64) (*catalog.Accommodation, bool, error) {
	return nil, false, nil
}

func (NoopCache) Set(context.Context, *catalog.Accommodation) error {
	return nil
}

// RedisCache keeps accommodations as JSON with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache returns a redis backed cache, or NoopCache when client is nil.
func NewRedisCache(client *redis.Client, ttl time.Duration) Cache {
	if client == nil {
		return NoopCache{}
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, id int64) (*catalog.Accommodation, bool, error) {
	data, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var acc catalog.Accommodation
	if err := json.Unmarshal(data, &acc); err != nil {
		// corrupt entry; drop it and fall through to the API
		logger.LogWarn(ctx, "Dropping corrupt cached accommodation", "accommodation_id", id, "error", err.Error())
		if delErr := c.client.Del(ctx, cacheKey(id)).Err(); delErr != nil {
			logger.LogWarn(ctx, "Failed to delete cached accommodation", "accommodation_id", id, "error", delErr.Error())
		}
		return nil, false, nil
	}
	return &acc, true, nil
}

func (c *RedisCache) Set(ctx context.Context, acc *catalog.Accommodation) error {
	data, err := json.Marshal(acc)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(acc.ID), data, c.ttl).Err()
}

// Invalidate removes a cached accommodation.
func (c *RedisCache) Invalidate(ctx context.Context, id int64) error {
	return c.client.Del(ctx, cacheKey(id)).Err()
}

func cacheKey(id int64) string {
	return cacheKeyPrefix + strconv.FormatInt(id, 10)
}
