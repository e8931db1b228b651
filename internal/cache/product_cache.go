package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GTDGit/gtd_catalog/internal/models"
)

// ProductCache caches storefront product details keyed by slug.
type ProductCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewProductCache creates a new ProductCache. A non-positive ttl keeps entries until
// they are invalidated.
func NewProductCache(redis *RedisClient, ttl time.Duration) *ProductCache {
	return &ProductCache{
		redis: redis,
		ttl:   ttl,
	}
}

func (c *ProductCache) keyBySlug(slug string) string {
	return fmt.Sprintf("catalog:product:slug:%s", slug)
}

// Get returns the cached detail of slug, or nil when it is not cached.
func (c *ProductCache) Get(ctx context.Context, slug string) (*models.ProductDetail, error) {
	raw, err := c.redis.Get(ctx, c.keyBySlug(slug))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var detail models.ProductDetail
	if err := json.Unmarshal([]byte(raw), &detail); err != nil {
		// Drop entries written by an older shape.
		_ = c.redis.Delete(ctx, c.keyBySlug(slug))
		return nil, nil
	}
	return &detail, nil
}

// Set stores the detail under its slug.
func (c *ProductCache) Set(ctx context.Context, detail *models.ProductDetail) error {
	data, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("failed to marshal product detail: %w", err)
	}
	ttl := c.ttl
	if ttl < 0 {
		ttl = 0
	}
	return c.redis.Set(ctx, c.keyBySlug(detail.Slug), string(data), ttl)
}

// Invalidate removes the cached details of the given slugs.
func (c *ProductCache) Invalidate(ctx context.Context, slugs ...string) error {
	keys := make([]string, 0, len(slugs))
	for _, s := range slugs {
		if s != "" {
			keys = append(keys, c.keyBySlug(s))
		}
	}
	return c.redis.Delete(ctx, keys...)
}
