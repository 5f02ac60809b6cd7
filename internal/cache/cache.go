// Package cache wraps a product manager with a Redis read-through cache
// for listing pages.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront/internal/dao"
	"storefront/internal/models"
)

const (
	keyPrefix  = "products:"
	DefaultTTL = time.Minute
)

// ProductCache caches GetProducts pages and drops every cached page on
// any catalogue mutation. Redis failures fall through to the wrapped manager.
type ProductCache struct {
	next  dao.ProductRepository
	redis *redis.Client
	ttl   time.Duration
	log   *zap.Logger
}

var _ dao.ProductRepository = (*ProductCache)(nil)

func NewProductCache(next dao.ProductRepository, client *redis.Client, ttl time.Duration, log *zap.Logger) *ProductCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ProductCache{next: next, redis: client, ttl: ttl, log: log}
}

// PageKey is the cache key for one listing page.
func PageKey(opts models.QueryOptions) string {
	opts = opts.Normalized()
	return fmt.Sprintf("%spage:%d:%d:%s:%s", keyPrefix, opts.Limit, opts.Page,
		strings.ToLower(opts.Sort), strings.ToLower(strings.TrimSpace(opts.Query)))
}

func (c *ProductCache) GetProducts(ctx context.Context, opts models.QueryOptions) (models.ProductPage, error) {
	key := PageKey(opts)

	if val, err := c.redis.Get(ctx, key).Result(); err == nil && val != "" {
		var cached models.ProductPage
		if err := json.Unmarshal([]byte(val), &cached); err == nil {
			return cached, nil
		}
	} else if err != nil && !errors.Is(err, redis.Nil) {
		c.log.Warn("⚠️ lectura de caché", zap.String("key", key), zap.Error(err))
	}

	page, err := c.next.GetProducts(ctx, opts)
	if err != nil {
		return page, err
	}

	if data, err := json.Marshal(page); err == nil {
		if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.log.Warn("⚠️ escritura de caché", zap.String("key", key), zap.Error(err))
		}
	}
	return page, nil
}

func (c *ProductCache) GetProductByID(ctx context.Context, id string) (models.Product, error) {
	return c.next.GetProductByID(ctx, id)
}

func (c *ProductCache) AddProduct(ctx context.Context, p models.Product) (models.Product, error) {
	created, err := c.next.AddProduct(ctx, p)
	if err == nil {
		c.Invalidate(ctx)
	}
	return created, err
}

func (c *ProductCache) UpdateProduct(ctx context.Context, id string, u models.ProductUpdate) (models.Product, error) {
	updated, err := c.next.UpdateProduct(ctx, id, u)
	if err == nil {
		c.Invalidate(ctx)
	}
	return updated, err
}

func (c *ProductCache) DeleteProduct(ctx context.Context, id string) error {
	err := c.next.DeleteProduct(ctx, id)
	if err == nil {
		c.Invalidate(ctx)
	}
	return err
}

// Invalidate removes every cached listing page.
func (c *ProductCache) Invalidate(ctx context.Context) {
	iter := c.redis.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		c.redis.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Warn("⚠️ invalidación de caché", zap.Error(err))
	}
}
