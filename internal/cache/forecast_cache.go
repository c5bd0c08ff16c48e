package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andresuchdata/stockcast/internal/config"
	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/redis/go-redis/v9"
)

const forecastKeyPrefix = "forecast"

// ForecastCache memoizes forecasts per (product, horizon).
type ForecastCache interface {
	Get(ctx context.Context, productID int64, horizon int) (*domain.ForecastResult, bool, error)
	Set(ctx context.Context, result domain.ForecastResult, horizon int) error
	InvalidateProduct(ctx context.Context, productID int64) error
	InvalidateAll(ctx context.Context) error
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastCache struct{}

// NewForecastCache returns a no-op cache when caching is disabled. Otherwise
// it uses client, dialling a new one from cfg when client is nil.
func NewForecastCache(cfg config.CacheConfig, client *redis.Client) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	if client == nil {
		var err error
		client, err = NewRedisClient(cfg)
		if err != nil {
			return nil, err
		}
	}

	return NewRedisForecastCache(client, TTLFromConfig(cfg)), nil
}

func NewRedisForecastCache(client *redis.Client, ttl time.Duration) ForecastCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &redisForecastCache{client: client, ttl: ttl}
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) Get(ctx context.Context, productID int64, horizon int) (*domain.ForecastResult, bool, error) {
	payload, err := c.client.Get(ctx, forecastKey(productID, horizon)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var result domain.ForecastResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, false, fmt.Errorf("decode forecast cache: %w", err)
	}

	return &result, true, nil
}

func (c *redisForecastCache) Set(ctx context.Context, result domain.ForecastResult, horizon int) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode forecast cache: %w", err)
	}

	if err := c.client.Set(ctx, forecastKey(result.ProductID, horizon), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (c *redisForecastCache) InvalidateProduct(ctx context.Context, productID int64) error {
	return deleteKeysWithPrefix(ctx, c.client, fmt.Sprintf("%s:%d:", forecastKeyPrefix, productID), scanBatchSize)
}

func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, forecastKeyPrefix+":", scanBatchSize)
}

func (n *noopForecastCache) Get(ctx context.Context, productID int64, horizon int) (*domain.ForecastResult, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) Set(ctx context.Context, result domain.ForecastResult, horizon int) error {
	return nil
}

func (n *noopForecastCache) InvalidateProduct(ctx context.Context, productID int64) error {
	return nil
}

func (n *noopForecastCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func forecastKey(productID int64, horizon int) string {
	return fmt.Sprintf("%s:%d:%d", forecastKeyPrefix, productID, horizon)
}
