package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pentacabs/booking-api/internal/domain"
)

// RedisCache holds cab-search results and replayed idempotent responses.
type RedisCache struct {
	client  *redis.Client
	cabsTTL time.Duration
}

func New(url string, cabsTTL time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	return &RedisCache{
		client:  redis.NewClient(opts),
		cabsTTL: cabsTTL,
	}, nil
}

func (c *RedisCache) GetCabs(ctx context.Context, serviceType domain.ServiceType, pickup, dropoff string) ([]domain.CabOption, error) {
	data, err := c.client.Get(ctx, cabsKey(serviceType, pickup, dropoff)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var cabs []domain.CabOption
	if err := json.Unmarshal(data, &cabs); err != nil {
		return nil, err
	}
	return cabs, nil
}

func (c *RedisCache) SetCabs(ctx context.Context, serviceType domain.ServiceType, pickup, dropoff string, cabs []domain.CabOption) error {
	payload, err := json.Marshal(cabs)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cabsKey(serviceType, pickup, dropoff), payload, c.cabsTTL).Err()
}

// Get implements middleware.IdempotencyStore.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

// Set implements middleware.IdempotencyStore.
func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func cabsKey(serviceType domain.ServiceType, pickup, dropoff string) string {
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	return fmt.Sprintf("cabs:%s:%s:%s", serviceType, norm(pickup), norm(dropoff))
}
