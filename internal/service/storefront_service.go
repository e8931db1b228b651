package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_catalog/internal/models"
	"github.com/GTDGit/gtd_catalog/internal/utils"
)

// StorefrontService serves active products to shoppers.
type StorefrontService struct {
	productRepo ProductStore
	optionRepo  OptionStore
	variantRepo VariantStore
	cache       ProductCache
}

// NewStorefrontService constructs a StorefrontService. cache may be nil.
func NewStorefrontService(productRepo ProductStore, optionRepo OptionStore, variantRepo VariantStore, cache ProductCache) *StorefrontService {
	return &StorefrontService{
		productRepo: productRepo,
		optionRepo:  optionRepo,
		variantRepo: variantRepo,
		cache:       cache,
	}
}

// ListProducts returns active products with pagination and the total count.
func (s *StorefrontService) ListProducts(ctx context.Context, search string, page, limit int) ([]models.Product, int, error) {
	products, total, err := s.productRepo.ListActive(ctx, search, page, limit)
	if err != nil {
		return nil, 0, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, total, nil
}

// GetProduct returns an active product with its options and variants, reading through
// the cache. Inactive products are reported as not found.
func (s *StorefrontService) GetProduct(ctx context.Context, slug string) (*models.ProductDetail, error) {
	if s.cache != nil {
		detail, err := s.cache.Get(ctx, slug)
		if err != nil {
			log.Warn().Err(err).Str("slug", slug).Msg("Product cache read failed")
		} else if detail != nil {
			return detail, nil
		}
	}

	detail, err := s.load(ctx, slug)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, detail); err != nil {
			log.Warn().Err(err).Str("slug", slug).Msg("Product cache write failed")
		}
	}
	return detail, nil
}

// WarmCache loads every active product into the cache and returns how many were stored.
func (s *StorefrontService) WarmCache(ctx context.Context) (int, error) {
	if s.cache == nil {
		return 0, nil
	}
	slugs, err := s.productRepo.ListActiveSlugs(ctx)
	if err != nil {
		return 0, err
	}

	warmed := 0
	for _, slug := range slugs {
		if err := ctx.Err(); err != nil {
			return warmed, err
		}
		detail, err := s.load(ctx, slug)
		if err != nil {
			log.Warn().Err(err).Str("slug", slug).Msg("Skipping product during cache warm")
			continue
		}
		if err := s.cache.Set(ctx, detail); err != nil {
			return warmed, err
		}
		warmed++
	}
	return warmed, nil
}

func (s *StorefrontService) load(ctx context.Context, slug string) (*models.ProductDetail, error) {
	product, err := s.productRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrProductNotFound
		}
		return nil, err
	}
	if !product.IsActive {
		return nil, utils.ErrProductNotFound
	}
	return loadDetail(ctx, product, s.optionRepo, s.variantRepo)
}
