package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simpleecom/services/internal/store"
)

func newTestCache(t *testing.T) (*ProductCache, *miniredis.Miniredis) {
	t.Helper()

	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr:             s.Addr(),
		DisableIndentity: true,
	})
	t.Cleanup(func() { client.Close() })

	return NewProductCache(client, time.Minute, nil), s
}

func TestProductCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, ok := c.GetList(ctx)
	assert.False(t, ok, "empty cache should miss")

	products := []store.Product{
		{ID: 1000, Name: "iPhone 14", Price: 999.99, Quantity: 50, AdminUsername: "admin", Category: "Electronics"},
		{ID: 1001, Name: "Samsung Galaxy S23", Price: 899.99, Quantity: 30, AdminUsername: "admin", Category: "Electronics"},
	}
	c.SetList(ctx, products)

	got, ok := c.GetList(ctx)
	require.True(t, ok)
	assert.Equal(t, products, got)
}

func TestProductCacheInvalidate(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.SetList(ctx, []store.Product{{ID: 1000, Name: "iPhone 14"}})
	c.Invalidate(ctx)

	_, ok := c.GetList(ctx)
	assert.False(t, ok, "invalidated entry should miss")
}

func TestProductCacheExpiry(t *testing.T) {
	c, s := newTestCache(t)
	ctx := context.Background()

	c.SetList(ctx, []store.Product{{ID: 1000, Name: "iPhone 14"}})
	s.FastForward(2 * time.Minute)

	_, ok := c.GetList(ctx)
	assert.False(t, ok, "expired entry should miss")
}

func TestProductCacheCorruptEntry(t *testing.T) {
	c, s := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, s.Set(productListKey, "{not json"))

	_, ok := c.GetList(ctx)
	assert.False(t, ok, "corrupt entry should miss")

	// The corrupt entry is dropped so the next fill starts clean.
	assert.False(t, s.Exists(productListKey))
}

func TestProductCacheRedisDown(t *testing.T) {
	c, s := newTestCache(t)
	ctx := context.Background()

	c.SetList(ctx, []store.Product{{ID: 1000, Name: "iPhone 14"}})
	s.Close()

	_, ok := c.GetList(ctx)
	assert.False(t, ok, "unreachable redis should degrade to a miss")
	c.SetList(ctx, nil)
	c.Invalidate(ctx)
}
