package service

import (
	"context"
	"errors"
	"testing"

	"github.com/GTDGit/gtd_catalog/internal/models"
	"github.com/GTDGit/gtd_catalog/internal/utils"
)

func newStorefront(t *testing.T, cache ProductCache) (*StorefrontService, *fakeProducts) {
	t.Helper()
	products := newFakeProducts()
	variants := newFakeVariants()
	svc := NewStorefrontService(products, newFakeOptions(variants), variants, cache)

	ctx := context.Background()
	for _, p := range []*models.Product{
		{Slug: "tee", Name: "Tee", IsActive: true},
		{Slug: "hoodie", Name: "Hoodie", IsActive: true},
		{Slug: "draft", Name: "Draft"},
	} {
		if err := products.Create(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	return svc, products
}

func TestStorefrontGetProductReadsThroughCache(t *testing.T) {
	cache := newFakeCache()
	svc, products := newStorefront(t, cache)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := svc.GetProduct(ctx, "tee")
		if err != nil {
			t.Fatalf("GetProduct: %v", err)
		}
		if d.Name != "Tee" {
			t.Fatalf("unexpected detail: %+v", d)
		}
	}
	if products.slugReads != 1 {
		t.Fatalf("expected a single database read, got %d", products.slugReads)
	}
}

func TestStorefrontHidesInactive(t *testing.T) {
	svc, _ := newStorefront(t, newFakeCache())
	for _, slug := range []string{"draft", "missing"} {
		if _, err := svc.GetProduct(context.Background(), slug); !errors.Is(err, utils.ErrProductNotFound) {
			t.Fatalf("%s: expected ErrProductNotFound, got %v", slug, err)
		}
	}
}

func TestStorefrontCacheErrorFallsBackToDatabase(t *testing.T) {
	cache := newFakeCache()
	cache.err = errors.New("redis down")
	svc, _ := newStorefront(t, cache)

	if _, err := svc.GetProduct(context.Background(), "hoodie"); err != nil {
		t.Fatalf("GetProduct should survive cache errors: %v", err)
	}
}

func TestStorefrontWithoutCache(t *testing.T) {
	svc, products := newStorefront(t, nil)
	ctx := context.Background()

	if _, err := svc.GetProduct(ctx, "tee"); err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if _, err := svc.GetProduct(ctx, "tee"); err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if products.slugReads != 2 {
		t.Fatalf("expected two database reads, got %d", products.slugReads)
	}
	if n, err := svc.WarmCache(ctx); n != 0 || err != nil {
		t.Fatalf("WarmCache without cache: %d %v", n, err)
	}
}

func TestStorefrontWarmCache(t *testing.T) {
	cache := newFakeCache()
	svc, _ := newStorefront(t, cache)

	n, err := svc.WarmCache(context.Background())
	if err != nil {
		t.Fatalf("WarmCache: %v", err)
	}
	if n != 2 || len(cache.entries) != 2 {
		t.Fatalf("expected 2 warmed products, got %d (%d entries)", n, len(cache.entries))
	}
	if _, ok := cache.entries["draft"]; ok {
		t.Fatal("inactive product must not be cached")
	}
}

func TestStorefrontListProducts(t *testing.T) {
	svc, _ := newStorefront(t, nil)
	products, total, err := svc.ListProducts(context.Background(), "", 1, 20)
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if total != 2 || len(products) != 2 {
		t.Fatalf("unexpected listing: %d %+v", total, products)
	}
}
