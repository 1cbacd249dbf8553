package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"MarketForecast/internal/model"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis-backed store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisStore implements Store on Redis, JSON-encoding the results.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "forecast"
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (c *RedisStore) key(ticker string) string {
	return c.prefix + ":" + ticker
}

func (c *RedisStore) Get(ctx context.Context, ticker string) (*model.ForecastResult, error) {
	data, err := c.client.Get(ctx, c.key(ticker)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	var res model.ForecastResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decode cached %s: %w", ticker, err)
	}
	return &res, nil
}

func (c *RedisStore) Set(ctx context.Context, ticker string, res *model.ForecastResult, ttl time.Duration) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	return c.client.Set(ctx, c.key(ticker), data, ttl).Err()
}

func (c *RedisStore) Delete(ctx context.Context, ticker string) error {
	return c.client.Unlink(ctx, c.key(ticker)).Err()
}

func (c *RedisStore) Close() error {
	return c.client.Close()
}
