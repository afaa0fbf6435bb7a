// Package cache provides the redis-backed product list cache.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/simpleecom/services/internal/store"
)

const productListKey = "simpleecom:products:all"

// ProductCache caches the full product listing in redis. It is a
// best-effort layer: redis being down or a decode failure degrades to a
// cache miss, never to a request failure.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewProductCache creates a product cache with the given entry TTL.
func NewProductCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ProductCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProductCache{client: client, ttl: ttl, logger: logger}
}

// GetList returns the cached product listing, or ok=false on a miss.
func (c *ProductCache) GetList(ctx context.Context) ([]store.Product, bool) {
	data, err := c.client.Get(ctx, productListKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("product cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var products []store.Product
	if err := json.Unmarshal(data, &products); err != nil {
		c.logger.Warn("product cache entry corrupt, dropping", zap.Error(err))
		c.Invalidate(ctx)
		return nil, false
	}
	return products, true
}

// SetList stores the product listing.
func (c *ProductCache) SetList(ctx context.Context, products []store.Product) {
	data, err := json.Marshal(products)
	if err != nil {
		c.logger.Warn("product cache encode failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, productListKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn("product cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached listing. Called after every product mutation.
func (c *ProductCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, productListKey).Err(); err != nil {
		c.logger.Warn("product cache invalidation failed", zap.Error(err))
	}
}
