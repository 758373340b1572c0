package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/predictive-exchange/binary-market/internal/domain"
	"github.com/predictive-exchange/binary-market/internal/port"
)

var _ port.Cache = (*RedisCache)(nil)

// RedisCache keeps the latest book snapshot per outcome as JSON with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(addr, password string, db int, ttl time.Duration) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisCache{client: rdb, ttl: ttl}
}

func key(option domain.Option) string { return "book:" + string(option) }

func (c *RedisCache) SetBook(ctx context.Context, option domain.Option, snap *domain.BookSnapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(option), b, c.ttl).Err()
}

func (c *RedisCache) GetBook(ctx context.Context, option domain.Option) (*domain.BookSnapshot, error) {
	b, err := c.client.Get(ctx, key(option)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap domain.BookSnapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *RedisCache) Invalidate(ctx context.Context, option domain.Option) error {
	return c.client.Del(ctx, key(option)).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
