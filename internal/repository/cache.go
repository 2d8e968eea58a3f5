package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const (
	productKeyPrefix = "product:"
	catalogKey       = "catalog:all"
	defaultCacheTTL  = 5 * time.Minute
)

// RedisProductCache implements ProductCache using Redis.
type RedisProductCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.LoggerV2
}

// NewRedisProductCache creates a Redis-based product cache.
func NewRedisProductCache(client *redis.Client, ttl time.Duration) *RedisProductCache {
	if ttl == 0 {
		ttl = defaultCacheTTL
	}

	return &RedisProductCache{
		client: client,
		ttl:    ttl,
		logger: logging.NewLoggerV2("product-cache"),
	}
}

// Get retrieves a product from cache.
func (c *RedisProductCache) Get(ctx context.Context, id string) (*models.Product, error) {
	data, err := c.client.Get(ctx, productKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("Cache miss", logging.Fields{"product_id": id})
		return nil, nil
	}
	if err != nil {
		c.logger.Error("Cache get error", logging.Fields{
			"product_id": id,
			"error":      err.Error(),
		})
		return nil, errors.Wrap(err, "redis get product")
	}

	var p models.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(err, "unmarshal cached product")
	}

	c.logger.Debug("Cache hit", logging.Fields{"product_id": id})
	return &p, nil
}

// Set stores a product in cache.
func (c *RedisProductCache) Set(ctx context.Context, p *models.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "marshal product")
	}

	if err := c.client.Set(ctx, productKeyPrefix+p.ID, data, c.ttl).Err(); err != nil {
		c.logger.Error("Cache set error", logging.Fields{
			"product_id": p.ID,
			"error":      err.Error(),
		})
		return errors.Wrap(err, "redis set product")
	}

	c.logger.Debug("Product cached", logging.Fields{
		"product_id": p.ID,
		"ttl":        c.ttl.String(),
	})
	return nil
}

// Delete removes a product and the cached listing that includes it.
func (c *RedisProductCache) Delete(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, productKeyPrefix+id, catalogKey).Err(); err != nil {
		c.logger.Error("Cache delete error", logging.Fields{
			"product_id": id,
			"error":      err.Error(),
		})
		return errors.Wrap(err, "redis delete product")
	}
	return nil
}

// GetAll retrieves the cached catalog listing.
func (c *RedisProductCache) GetAll(ctx context.Context) ([]models.Product, error) {
	data, err := c.client.Get(ctx, catalogKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get catalog")
	}

	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, errors.Wrap(err, "unmarshal cached catalog")
	}
	return products, nil
}

// SetAll caches the catalog listing.
func (c *RedisProductCache) SetAll(ctx context.Context, products []models.Product) error {
	if products == nil {
		products = []models.Product{}
	}
	data, err := json.Marshal(products)
	if err != nil {
		return errors.Wrap(err, "marshal catalog")
	}
	if err := c.client.Set(ctx, catalogKey, data, c.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set catalog")
	}
	return nil
}

// InvalidateAll drops the cached listing and every cached product.
func (c *RedisProductCache) InvalidateAll(ctx context.Context) error {
	keys := []string{catalogKey}
	iter := c.client.Scan(ctx, 0, productKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errors.Wrap(err, "redis scan products")
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return errors.Wrap(err, "redis invalidate catalog")
	}

	logging.Infof("Cache: invalidated %d catalog keys", len(keys))
	return nil
}
