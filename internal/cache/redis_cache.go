package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"kasirbuku/backend/internal/domain"
)

const (
	defaultNamespace = "kasirbuku:dashboard"
	generationSuffix = "generation"
)

// RedisDashboardCache stores dashboards as JSON. Keys embed a generation
// counter so Invalidate is a single INCR; stale generations age out by TTL.
type RedisDashboardCache struct {
	client    redis.UniversalClient
	namespace string
}

func NewRedisDashboardCache(addr string, password string, db int) *RedisDashboardCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return NewRedisDashboardCacheFromClient(client, defaultNamespace)
}

func NewRedisDashboardCacheFromClient(client redis.UniversalClient, namespace string) *RedisDashboardCache {
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &RedisDashboardCache{client: client, namespace: namespace}
}

func (c *RedisDashboardCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisDashboardCache) Close() error {
	return c.client.Close()
}

func (c *RedisDashboardCache) Get(ctx context.Context, key string) (*domain.Dashboard, bool, error) {
	fullKey, err := c.key(ctx, key)
	if err != nil {
		return nil, false, err
	}
	val, err := c.client.Get(ctx, fullKey).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var dashboard domain.Dashboard
	if err := json.Unmarshal([]byte(val), &dashboard); err != nil {
		return nil, false, err
	}
	return &dashboard, true, nil
}

func (c *RedisDashboardCache) Set(ctx context.Context, key string, value *domain.Dashboard, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	fullKey, err := c.key(ctx, key)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, fullKey, payload, ttl).Err()
}

func (c *RedisDashboardCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, c.generationKey()).Err()
}

func (c *RedisDashboardCache) key(ctx context.Context, key string) (string, error) {
	generation, err := c.client.Get(ctx, c.generationKey()).Int64()
	if err == redis.Nil {
		generation = 0
	} else if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d:%s", c.namespace, generation, key), nil
}

func (c *RedisDashboardCache) generationKey() string {
	return c.namespace + ":" + generationSuffix
}
