package basket

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func cacheKey(userID int) string {
	return fmt.Sprintf("basket:%d", userID)
}

func (c *RedisCache) Get(ctx context.Context, userID int) (Basket, bool, error) {
	raw, err := c.client.Get(ctx, cacheKey(userID)).Result()
	if err == redis.Nil {
		return Basket{}, false, nil
	}
	if err != nil {
		return Basket{}, false, err
	}

	var b Basket
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return Basket{}, false, fmt.Errorf("decode basket for user %d: %w", userID, err)
	}
	return b, true, nil
}

func (c *RedisCache) Put(ctx context.Context, userID int, b Basket) error {
	payload, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(userID), payload, c.ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, userID int) error {
	return c.client.Del(ctx, cacheKey(userID)).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
