package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"donation-platform/internal/config"
	"donation-platform/internal/models"
)

const targetCachePrefix = "targets:"

// RedisTargetCache keeps public target listings in Redis
type RedisTargetCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTargetCache connects to Redis and verifies the connection
func NewRedisTargetCache(cfg config.RedisConfig) (*RedisTargetCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisTargetCache{client: client, ttl: ttl}, nil
}

// NewTargetCache returns a Redis cache when one is configured and reachable,
// otherwise a cache that stores nothing
func NewTargetCache(cfg config.RedisConfig) TargetCache {
	if cfg.Addr == "" {
		return NoopTargetCache{}
	}
	cache, err := NewRedisTargetCache(cfg)
	if err != nil {
		log.Printf("Target cache disabled: %v", err)
		return NoopTargetCache{}
	}
	log.Printf("Target cache: using redis at %s", cfg.Addr)
	return cache
}

// Get decodes the cached value for key into dst
func (c *RedisTargetCache) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := c.client.Get(ctx, targetCachePrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return true, nil
}

// Set stores value under key for the configured TTL
func (c *RedisTargetCache) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, targetCachePrefix+key, data, c.ttl).Err()
}

// Invalidate drops every cached listing of category
func (c *RedisTargetCache) Invalidate(ctx context.Context, category models.DonationCategory) error {
	var keys []string
	iter := c.client.Scan(ctx, 0, targetCachePrefix+string(category)+":*", 100).Iterator()
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

// Close closes the Redis connection
func (c *RedisTargetCache) Close() error {
	return c.client.Close()
}

// NoopTargetCache never stores anything
type NoopTargetCache struct{}

func (NoopTargetCache) Get(context.Context, string, interface{}) (bool, error) { return false, nil }
func (NoopTargetCache) Set(context.Context, string, interface{}) error        { return nil }
func (NoopTargetCache) Invalidate(context.Context, models.DonationCategory) error {
	return nil
}

// targetCacheKey identifies one page of a public listing
func targetCacheKey(category models.DonationCategory, q TargetQuery) string {
	return fmt.Sprintf("%s:%s:%s:%d:%d", category, q.Status, q.Search, q.Page, q.PerPage)
}
