package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_catalog/internal/models"
	"github.com/GTDGit/gtd_catalog/internal/storage"
	"github.com/GTDGit/gtd_catalog/internal/utils"
	"github.com/GTDGit/gtd_catalog/internal/variant"
)

func loadProduct(ctx context.Context, products ProductStore, id int) (*models.Product, error) {
	product, err := products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

// invalidateCache drops cached storefront details. Failures only log: entries expire on
// their own.
func invalidateCache(ctx context.Context, c ProductCache, slugs ...string) {
	if c == nil {
		return
	}
	if err := c.Invalidate(ctx, slugs...); err != nil {
		log.Warn().Err(err).Strs("slugs", slugs).Msg("Failed to invalidate product cache")
	}
}

// deleteImages removes stored image objects best-effort. URLs not issued by store are
// left alone.
func deleteImages(ctx context.Context, store storage.Storage, urls []string) {
	if store == nil {
		return
	}
	for _, u := range urls {
		key, ok := store.KeyFromURL(u)
		if !ok {
			continue
		}
		if err := store.Delete(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to delete variant image")
		}
	}
}

func loadDetail(ctx context.Context, product *models.Product, options OptionStore, variants VariantStore) (*models.ProductDetail, error) {
	opts, err := options.ListByProduct(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	vs, err := variants.ListByProduct(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	if opts == nil {
		opts = []variant.Option{}
	}
	if vs == nil {
		vs = []variant.Variant{}
	}

	detail := &models.ProductDetail{Product: *product, Options: opts, Variants: vs}
	detail.VariantCount = len(vs)
	return detail, nil
}
