package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

func newTestCache(t *testing.T) (*RedisProductCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisProductCache(client, time.Minute), mr
}

func TestRedisProductCache_MissReturnsNil(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	p, err := cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, p)

	all, err := cache.GetAll(ctx)
	require.NoError(t, err)
	assert.Nil(t, all)
}

func TestRedisProductCache_SetGet(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	p := &models.Product{ID: "p1", Name: "Chêne", Price: decimal.RequireFromString("89.90"), Stock: 100}
	require.NoError(t, cache.Set(ctx, p))
	assert.Equal(t, time.Minute, mr.TTL("product:p1"))

	got, err := cache.Get(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Chêne", got.Name)
	assert.True(t, got.Price.Equal(p.Price))

	require.NoError(t, cache.SetAll(ctx, []models.Product{*p}))
	require.NoError(t, cache.Delete(ctx, "p1"))
	got, err = cache.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, mr.Exists("catalog:all"), "the listing holds the deleted product")
}

func TestRedisProductCache_InvalidateAll(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &models.Product{ID: "a"}))
	require.NoError(t, cache.Set(ctx, &models.Product{ID: "b"}))
	require.NoError(t, cache.SetAll(ctx, []models.Product{{ID: "a"}, {ID: "b"}}))

	all, err := cache.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, cache.InvalidateAll(ctx))
	assert.False(t, mr.Exists("product:a"))
	assert.False(t, mr.Exists("product:b"))
	assert.False(t, mr.Exists("catalog:all"))
}

func TestRedisProductCache_ErrorsSurface(t *testing.T) {
	cache, mr := newTestCache(t)
	mr.Close()

	_, err := cache.Get(context.Background(), "p1")
	assert.Error(t, err)
}
