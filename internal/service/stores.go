package service

import (
	"context"

	"github.com/GTDGit/gtd_catalog/internal/cache"
	"github.com/GTDGit/gtd_catalog/internal/models"
	"github.com/GTDGit/gtd_catalog/internal/repository"
	"github.com/GTDGit/gtd_catalog/internal/variant"
)

// ProductStore is the product persistence used by services.
type ProductStore interface {
	GetByID(ctx context.Context, id int) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	SlugExists(ctx context.Context, slug string, excludeID int) (bool, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id int) error
	ListAdmin(ctx context.Context, filter *repository.AdminProductFilter) (*repository.AdminProductResult, error)
	ListActive(ctx context.Context, search string, page, limit int) ([]models.Product, int, error)
	ListActiveSlugs(ctx context.Context) ([]string, error)
}

// OptionStore persists option sets together with their variant plan.
type OptionStore interface {
	ListByProduct(ctx context.Context, productID int) ([]variant.Option, error)
	SaveWithVariants(ctx context.Context, productID int, options []variant.Option, plan variant.SyncPlan) error
}

// VariantStore is the variant persistence used by services.
type VariantStore interface {
	ListByProduct(ctx context.Context, productID int) ([]variant.Variant, error)
	GetByID(ctx context.Context, productID int, id string) (*models.ProductVariant, error)
	UpdateStock(ctx context.Context, v *models.ProductVariant) error
	SetImage(ctx context.Context, productID int, id string, image *string) error
	ListImages(ctx context.Context, productID int) ([]string, error)
}

// ProductCache caches storefront product details by slug.
type ProductCache interface {
	Get(ctx context.Context, slug string) (*models.ProductDetail, error)
	Set(ctx context.Context, detail *models.ProductDetail) error
	Invalidate(ctx context.Context, slugs ...string) error
}

// AdminUserStore is the admin account persistence used by AdminAuthService.
type AdminUserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	Create(ctx context.Context, user *models.AdminUser) error
	TouchLastLogin(ctx context.Context, id int) error
}

var (
	_ ProductStore   = (*repository.ProductRepository)(nil)
	_ OptionStore    = (*repository.OptionRepository)(nil)
	_ VariantStore   = (*repository.VariantRepository)(nil)
	_ AdminUserStore = (*repository.AdminUserRepository)(nil)
	_ ProductCache   = (*cache.ProductCache)(nil)
)
