package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/GTDGit/gtd_catalog/internal/config"
	"github.com/GTDGit/gtd_catalog/internal/models"
	"github.com/GTDGit/gtd_catalog/internal/utils"
	"github.com/GTDGit/gtd_catalog/internal/variant"
)

func newManagementService() (*ProductManagementService, *fakeProducts, *fakeCache, *recordingNotifier) {
	products := newFakeProducts()
	variants := newFakeVariants()
	cache := newFakeCache()
	notifier := &recordingNotifier{}
	svc := NewProductManagementService(products, newFakeOptions(variants), variants, cache, newFakeStorage(), notifier)
	return svc, products, cache, notifier
}

func TestCreateProductDerivesUniqueSlug(t *testing.T) {
	svc, _, _, notifier := newManagementService()
	ctx := context.Background()

	var slugs []string
	for i := 0; i < 3; i++ {
		p, err := svc.CreateProduct(ctx, &CreateProductRequest{Name: "Classic Tee", Price: decimal.NewFromInt(12)})
		if err != nil {
			t.Fatalf("CreateProduct: %v", err)
		}
		slugs = append(slugs, p.Slug)
	}
	want := []string{"classic-tee", "classic-tee-2", "classic-tee-3"}
	for i := range want {
		if slugs[i] != want[i] {
			t.Fatalf("slug %d: got %q, want %q", i, slugs[i], want[i])
		}
	}
	if len(notifier.events) != 3 || notifier.events[0] != "created:classic-tee" {
		t.Fatalf("unexpected events: %v", notifier.events)
	}
}

func TestCreateProductExplicitSlugConflict(t *testing.T) {
	svc, _, _, _ := newManagementService()
	ctx := context.Background()

	if _, err := svc.CreateProduct(ctx, &CreateProductRequest{Name: "Tee", Slug: "Summer Tee"}); err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	_, err := svc.CreateProduct(ctx, &CreateProductRequest{Name: "Other", Slug: "summer-tee"})
	if !errors.Is(err, utils.ErrSlugExists) {
		t.Fatalf("expected ErrSlugExists, got %v", err)
	}
}

func TestCreateProductRejectsInvalidPrice(t *testing.T) {
	svc, _, _, _ := newManagementService()
	for _, price := range []string{"-1", "12.345", "1000000000000"} {
		_, err := svc.CreateProduct(context.Background(), &CreateProductRequest{Name: "Tee", Price: decimal.RequireFromString(price)})
		if !errors.Is(err, utils.ErrInvalidPrice) {
			t.Fatalf("price %s: expected ErrInvalidPrice, got %v", price, err)
		}
	}
}

func TestUpdateProductSlugInvalidatesBothKeys(t *testing.T) {
	svc, _, cache, _ := newManagementService()
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, &CreateProductRequest{Name: "Tee"})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	newSlug := "Better Tee"
	active := true
	updated, err := svc.UpdateProduct(ctx, p.ID, &UpdateProductRequest{Slug: &newSlug, IsActive: &active})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if updated.Slug != "better-tee" || !updated.IsActive || updated.Name != "Tee" {
		t.Fatalf("unexpected product: %+v", updated)
	}
	if len(cache.invalidated) != 2 || cache.invalidated[0] != "tee" || cache.invalidated[1] != "better-tee" {
		t.Fatalf("unexpected invalidations: %v", cache.invalidated)
	}
}

func TestUpdateProductNotFound(t *testing.T) {
	svc, _, _, _ := newManagementService()
	name := "x"
	if _, err := svc.UpdateProduct(context.Background(), 42, &UpdateProductRequest{Name: &name}); !errors.Is(err, utils.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestDeleteProductRemovesImages(t *testing.T) {
	products := newFakeProducts()
	variants := newFakeVariants()
	options := newFakeOptions(variants)
	store := newFakeStorage()
	notifier := &recordingNotifier{}
	mgmt := NewProductManagementService(products, options, variants, nil, store, notifier)
	catalog := NewCatalogService(products, options, variants, nil, store, nil,
		config.CatalogConfig{MaxCombinations: 10, MaxOptions: 3, MaxValues: 3}, 1<<20)
	ctx := context.Background()

	p, err := mgmt.CreateProduct(ctx, &CreateProductRequest{Name: "Mug"})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	res, err := catalog.SaveOptions(ctx, p.ID, &OptionsRequest{Options: []variant.Option{
		{ID: "opt_size", Title: "Size", Values: []variant.OptionValue{{ID: "optval_s", Value: "S"}}},
	}})
	if err != nil {
		t.Fatalf("SaveOptions: %v", err)
	}
	gif := []byte("GIF89a\x01\x00\x01\x00")
	if _, err := catalog.UploadVariantImage(ctx, p.ID, res.Variants[0].ID, ImageUpload{Filename: "m.gif", Size: int64(len(gif)), Body: bytes.NewReader(gif)}); err != nil {
		t.Fatalf("upload: %v", err)
	}

	if err := mgmt.DeleteProduct(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if len(store.objects) != 0 {
		t.Fatalf("images left behind: %d", len(store.objects))
	}
	if err := mgmt.DeleteProduct(ctx, p.ID); !errors.Is(err, utils.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if last := notifier.events[len(notifier.events)-1]; last != "deleted:mug" {
		t.Fatalf("unexpected last event: %s", last)
	}
}

func TestGetProductDetail(t *testing.T) {
	svc, products, _, _ := newManagementService()
	ctx := context.Background()
	p := &models.Product{Slug: "cap", Name: "Cap"}
	if err := products.Create(ctx, p); err != nil {
		t.Fatal(err)
	}

	detail, err := svc.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if detail.Options == nil || detail.Variants == nil || detail.VariantCount != 0 {
		t.Fatalf("unexpected detail: %+v", detail)
	}
}
