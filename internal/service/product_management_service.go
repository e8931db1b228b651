package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/gtd_catalog/internal/models"
	"github.com/GTDGit/gtd_catalog/internal/repository"
	"github.com/GTDGit/gtd_catalog/internal/sse"
	"github.com/GTDGit/gtd_catalog/internal/storage"
	"github.com/GTDGit/gtd_catalog/internal/utils"
)

// ProductManagementService handles product CRUD operations.
type ProductManagementService struct {
	productRepo ProductStore
	optionRepo  OptionStore
	variantRepo VariantStore
	cache       ProductCache
	storage     storage.Storage
	notifier    sse.CatalogNotifier
}

// NewProductManagementService constructs a ProductManagementService. cache and store may
// be nil.
func NewProductManagementService(productRepo ProductStore, optionRepo OptionStore, variantRepo VariantStore, cache ProductCache, store storage.Storage, notifier sse.CatalogNotifier) *ProductManagementService {
	if notifier == nil {
		notifier = &sse.NopNotifier{}
	}
	return &ProductManagementService{
		productRepo: productRepo,
		optionRepo:  optionRepo,
		variantRepo: variantRepo,
		cache:       cache,
		storage:     store,
		notifier:    notifier,
	}
}

// CreateProductRequest represents the request to create a new product.
type CreateProductRequest struct {
	Name              string          `json:"name" binding:"required,notblank,max=255"`
	Slug              string          `json:"slug" binding:"omitempty,max=255"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price"`
	InventoryQuantity int             `json:"inventoryQuantity" binding:"min=0"`
	IsActive          bool            `json:"isActive"`
}

// UpdateProductRequest represents the request to update a product. Nil fields are kept.
type UpdateProductRequest struct {
	Name              *string          `json:"name" binding:"omitempty,notblank,max=255"`
	Slug              *string          `json:"slug" binding:"omitempty,notblank,max=255"`
	Description       *string          `json:"description"`
	Price             *decimal.Decimal `json:"price"`
	InventoryQuantity *int             `json:"inventoryQuantity" binding:"omitempty,min=0"`
	IsActive          *bool            `json:"isActive"`
}

// CreateProduct creates a new product. Without an explicit slug one is derived from the
// name and suffixed until unique; an explicit slug that is taken fails with ErrSlugExists.
func (s *ProductManagementService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	if !models.ValidPrice(req.Price) {
		return nil, utils.ErrInvalidPrice
	}

	var slug string
	var err error
	if strings.TrimSpace(req.Slug) != "" {
		slug, err = s.claimSlug(ctx, utils.Slugify(req.Slug), 0)
	} else {
		slug, err = s.deriveSlug(ctx, req.Name, 0)
	}
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Slug:              slug,
		Name:              strings.TrimSpace(req.Name),
		Description:       req.Description,
		Price:             req.Price,
		InventoryQuantity: req.InventoryQuantity,
		IsActive:          req.IsActive,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	log.Info().Int("product_id", product.ID).Str("slug", product.Slug).Msg("Product created")
	s.notifier.NotifyProductCreated(product)
	return product, nil
}

// GetProduct retrieves a product by ID together with its options and variants.
func (s *ProductManagementService) GetProduct(ctx context.Context, id int) (*models.ProductDetail, error) {
	product, err := loadProduct(ctx, s.productRepo, id)
	if err != nil {
		return nil, err
	}
	return loadDetail(ctx, product, s.optionRepo, s.variantRepo)
}

// UpdateProduct updates a product.
func (s *ProductManagementService) UpdateProduct(ctx context.Context, id int, req *UpdateProductRequest) (*models.Product, error) {
	product, err := loadProduct(ctx, s.productRepo, id)
	if err != nil {
		return nil, err
	}
	oldSlug := product.Slug

	if req.Slug != nil {
		slug := utils.Slugify(*req.Slug)
		if slug != product.Slug {
			if slug, err = s.claimSlug(ctx, slug, product.ID); err != nil {
				return nil, err
			}
			product.Slug = slug
		}
	}
	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		if !models.ValidPrice(*req.Price) {
			return nil, utils.ErrInvalidPrice
		}
		product.Price = *req.Price
	}
	if req.InventoryQuantity != nil {
		product.InventoryQuantity = *req.InventoryQuantity
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrProductNotFound
		}
		return nil, err
	}

	invalidateCache(ctx, s.cache, oldSlug, product.Slug)
	s.notifier.NotifyProductUpdated(product)
	return product, nil
}

// DeleteProduct deletes a product with its options and variants, then removes the images
// its variants referenced.
func (s *ProductManagementService) DeleteProduct(ctx context.Context, id int) error {
	product, err := loadProduct(ctx, s.productRepo, id)
	if err != nil {
		return err
	}

	images, err := s.variantRepo.ListImages(ctx, product.ID)
	if err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, product.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return utils.ErrProductNotFound
		}
		return err
	}

	deleteImages(ctx, s.storage, images)
	invalidateCache(ctx, s.cache, product.Slug)
	log.Info().Int("product_id", product.ID).Int("images", len(images)).Msg("Product deleted")
	s.notifier.NotifyProductDeleted(product)
	return nil
}

// ListProductsFilter holds admin listing filters.
type ListProductsFilter struct {
	Search   string
	IsActive *bool
	Page     int
	Limit    int
}

func (s *ProductManagementService) ListProducts(ctx context.Context, filter *ListProductsFilter) (*repository.AdminProductResult, error) {
	repoFilter := &repository.AdminProductFilter{
		Search:   filter.Search,
		IsActive: filter.IsActive,
		Page:     filter.Page,
		Limit:    filter.Limit,
	}
	return s.productRepo.ListAdmin(ctx, repoFilter)
}

func (s *ProductManagementService) claimSlug(ctx context.Context, slug string, excludeID int) (string, error) {
	exists, err := s.productRepo.SlugExists(ctx, slug, excludeID)
	if err != nil {
		return "", err
	}
	if exists {
		return "", utils.ErrSlugExists
	}
	return slug, nil
}

const maxSlugAttempts = 50

func (s *ProductManagementService) deriveSlug(ctx context.Context, name string, excludeID int) (string, error) {
	base := utils.Slugify(name)
	slug := base
	for i := 2; i <= maxSlugAttempts+1; i++ {
		exists, err := s.productRepo.SlugExists(ctx, slug, excludeID)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
	return "", utils.ErrSlugExists
}
