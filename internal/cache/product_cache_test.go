package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/gtd_catalog/internal/models"
	"github.com/GTDGit/gtd_catalog/internal/variant"
)

func newTestCache(t *testing.T, ttl time.Duration) (*ProductCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewProductCache(WrapRedisClient(client), ttl), mr
}

func TestProductCacheMiss(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	got, err := c.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected miss, got %+v", got)
	}
}

func TestProductCacheRoundTripAndTTL(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	detail := &models.ProductDetail{
		Product: models.Product{ID: 1, Slug: "tee", Name: "Tee", Price: decimal.RequireFromString("9.50")},
		Options: []variant.Option{{ID: "opt_size", Title: "Size", Rank: 1,
			Values: []variant.OptionValue{{ID: "optval_s", Value: "S", Rank: 1, OptionID: "opt_size"}}}},
		Variants: []variant.Variant{{ID: "variant_1", Price: decimal.RequireFromString("9.50"),
			OptionValues: []variant.OptionValue{{ID: "optval_s", Value: "S", Rank: 1, OptionID: "opt_size"}}}},
	}
	if err := c.Set(ctx, detail); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ttl := mr.TTL("catalog:product:slug:tee"); ttl != time.Minute {
		t.Fatalf("unexpected ttl: %s", ttl)
	}

	got, err := c.Get(ctx, "tee")
	if err != nil || got == nil {
		t.Fatalf("Get: %v %v", got, err)
	}
	if got.Name != "Tee" || len(got.Variants) != 1 || !got.Variants[0].Price.Equal(detail.Variants[0].Price) {
		t.Fatalf("unexpected detail: %+v", got)
	}

	mr.FastForward(2 * time.Minute)
	if got, _ := c.Get(ctx, "tee"); got != nil {
		t.Fatal("entry should have expired")
	}
}

func TestProductCacheInvalidate(t *testing.T) {
	c, mr := newTestCache(t, 0)
	ctx := context.Background()

	for _, slug := range []string{"a", "b"} {
		if err := c.Set(ctx, &models.ProductDetail{Product: models.Product{Slug: slug}}); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	if err := c.Invalidate(ctx, "a", ""); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if mr.Exists("catalog:product:slug:a") {
		t.Fatal("a should be gone")
	}
	if !mr.Exists("catalog:product:slug:b") {
		t.Fatal("b should remain")
	}
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("empty Invalidate: %v", err)
	}
}

func TestProductCacheDropsCorruptEntry(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	if err := mr.Set("catalog:product:slug:bad", "{not json"); err != nil {
		t.Fatal(err)
	}

	got, err := c.Get(context.Background(), "bad")
	if err != nil || got != nil {
		t.Fatalf("expected silent miss, got %v %v", got, err)
	}
	if mr.Exists("catalog:product:slug:bad") {
		t.Fatal("corrupt entry should be removed")
	}
}
