package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/gtd_catalog/internal/config"
	"github.com/GTDGit/gtd_catalog/internal/models"
	"github.com/GTDGit/gtd_catalog/internal/sse"
	"github.com/GTDGit/gtd_catalog/internal/storage"
	"github.com/GTDGit/gtd_catalog/internal/utils"
	"github.com/GTDGit/gtd_catalog/internal/variant"
)

// CatalogService manages the options of a product and the variants generated from them.
type CatalogService struct {
	productRepo    ProductStore
	optionRepo     OptionStore
	variantRepo    VariantStore
	cache          ProductCache
	storage        storage.Storage
	notifier       sse.CatalogNotifier
	limits         config.CatalogConfig
	maxUploadBytes int64
	generator      variant.Generator
	locks          productLocks
}

// NewCatalogService constructs a CatalogService. cache and store may be nil; without a
// store image uploads fail with ErrStorageUnavailable.
func NewCatalogService(productRepo ProductStore, optionRepo OptionStore, variantRepo VariantStore, cache ProductCache, store storage.Storage, notifier sse.CatalogNotifier, limits config.CatalogConfig, maxUploadBytes int64) *CatalogService {
	if notifier == nil {
		notifier = &sse.NopNotifier{}
	}
	return &CatalogService{
		productRepo:    productRepo,
		optionRepo:     optionRepo,
		variantRepo:    variantRepo,
		cache:          cache,
		storage:        store,
		notifier:       notifier,
		limits:         limits,
		maxUploadBytes: maxUploadBytes,
	}
}

// OptionsRequest carries the option form of a product. Variants is the variant list the
// form currently shows; when nil the stored variants are used.
type OptionsRequest struct {
	Options  []variant.Option  `json:"options" binding:"required"`
	Variants []variant.Variant `json:"variants"`
}

// PreviewResult is a regenerated variant list that has not been saved.
type PreviewResult struct {
	Options      []variant.Option  `json:"options"`
	Variants     []variant.Variant `json:"variants"`
	Combinations int               `json:"combinations"`
}

// SaveResult is the persisted option set, its variants and the size of the applied diff.
type SaveResult struct {
	Options  []variant.Option  `json:"options"`
	Variants []variant.Variant `json:"variants"`
	Inserted int               `json:"inserted"`
	Updated  int               `json:"updated"`
	Deleted  int               `json:"deleted"`
}

// UpdateVariantRequest overrides price or inventory of one variant. Nil fields are kept.
type UpdateVariantRequest struct {
	Price             *decimal.Decimal `json:"price"`
	InventoryQuantity *int             `json:"inventoryQuantity" binding:"omitempty,min=0"`
}

// ImageUpload is a variant image as received from the client.
type ImageUpload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// GetOptions returns the rank-ordered options of a product.
func (s *CatalogService) GetOptions(ctx context.Context, productID int) ([]variant.Option, error) {
	if _, err := loadProduct(ctx, s.productRepo, productID); err != nil {
		return nil, err
	}
	opts, err := s.optionRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if opts == nil {
		opts = []variant.Option{}
	}
	return opts, nil
}

// GetVariants returns the stored variants of a product in generation order.
func (s *CatalogService) GetVariants(ctx context.Context, productID int) ([]variant.Variant, error) {
	if _, err := loadProduct(ctx, s.productRepo, productID); err != nil {
		return nil, err
	}
	vs, err := s.variantRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if vs == nil {
		vs = []variant.Variant{}
	}
	return vs, nil
}

// PreviewVariants regenerates the variant list for an option form without saving it.
// Options are not validated, so blank titles and values typed mid-edit are accepted;
// size limits still apply. Missing ids are assigned and returned so the client can keep
// them for the next round.
func (s *CatalogService) PreviewVariants(ctx context.Context, productID int, req *OptionsRequest) (*PreviewResult, error) {
	product, err := loadProduct(ctx, s.productRepo, productID)
	if err != nil {
		return nil, err
	}
	return s.preview(ctx, product, req)
}

// Product loads the product a preview session works on.
func (s *CatalogService) Product(ctx context.Context, productID int) (*models.Product, error) {
	return loadProduct(ctx, s.productRepo, productID)
}

// PreviewForProduct is PreviewVariants for an already loaded product.
func (s *CatalogService) PreviewForProduct(ctx context.Context, product *models.Product, req *OptionsRequest) (*PreviewResult, error) {
	return s.preview(ctx, product, req)
}

func (s *CatalogService) preview(ctx context.Context, product *models.Product, req *OptionsRequest) (*PreviewResult, error) {
	opts := variant.Rerank(variant.AssignIDs(req.Options, nil, nil))
	if err := s.checkLimits(opts); err != nil {
		return nil, err
	}

	existing := normalizeFormVariants(req.Variants, s.newID)
	if req.Variants == nil {
		stored, err := s.variantRepo.ListByProduct(ctx, product.ID)
		if err != nil {
			return nil, err
		}
		existing = stored
	}

	variants := s.generator.Generate(opts, existing, defaultsOf(product))
	return &PreviewResult{
		Options:      opts,
		Variants:     variants,
		Combinations: len(variants),
	}, nil
}

// SaveOptions replaces the options of a product and brings its variants in line with
// them. Variants whose combination survives keep their id, price, inventory and image;
// new combinations start from the product defaults; the rest are deleted together with
// images nothing references anymore.
func (s *CatalogService) SaveOptions(ctx context.Context, productID int, req *OptionsRequest) (*SaveResult, error) {
	unlock := s.locks.lock(productID)
	defer unlock()

	product, err := loadProduct(ctx, s.productRepo, productID)
	if err != nil {
		return nil, err
	}

	opts := variant.Rerank(variant.AssignIDs(req.Options, nil, nil))
	if err := variant.Validate(opts); err != nil {
		return nil, err
	}
	if err := s.checkLimits(opts); err != nil {
		return nil, err
	}

	stored, err := s.variantRepo.ListByProduct(ctx, product.ID)
	if err != nil {
		return nil, err
	}

	existing := stored
	if req.Variants != nil {
		if err := variant.ValidateVariantIDs(req.Variants); err != nil {
			return nil, err
		}
		for _, v := range req.Variants {
			if !models.ValidPrice(v.Price) || v.InventoryQuantity < 0 {
				return nil, utils.ErrInvalidPrice
			}
		}
		existing = withStoredImages(normalizeFormVariants(req.Variants, s.newID), stored)
	}

	target := s.generator.Generate(opts, existing, defaultsOf(product))
	plan := variant.Plan(stored, target)

	if err := s.optionRepo.SaveWithVariants(ctx, product.ID, opts, plan); err != nil {
		return nil, err
	}

	log.Info().
		Int("product_id", product.ID).
		Int("options", len(opts)).
		Int("variants", len(target)).
		Int("inserted", len(plan.Insert)).
		Int("updated", len(plan.Update)).
		Int("deleted", len(plan.Delete)).
		Msg("Product options saved")

	deleteImages(ctx, s.storage, variant.OrphanedImages(plan, target))
	invalidateCache(ctx, s.cache, product.Slug)
	s.notifier.NotifyVariantsRegenerated(product, plan, len(target))

	return &SaveResult{
		Options:  opts,
		Variants: target,
		Inserted: len(plan.Insert),
		Updated:  len(plan.Update),
		Deleted:  len(plan.Delete),
	}, nil
}

// UpdateVariant overrides the price or inventory of one variant.
func (s *CatalogService) UpdateVariant(ctx context.Context, productID int, variantID string, req *UpdateVariantRequest) (*variant.Variant, error) {
	if req.Price != nil && !models.ValidPrice(*req.Price) {
		return nil, utils.ErrInvalidPrice
	}

	unlock := s.locks.lock(productID)
	defer unlock()

	product, row, err := s.loadVariant(ctx, productID, variantID)
	if err != nil {
		return nil, err
	}

	if req.Price != nil {
		row.Price = *req.Price
	}
	if req.InventoryQuantity != nil {
		row.InventoryQuantity = *req.InventoryQuantity
	}
	if err := s.variantRepo.UpdateStock(ctx, row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrVariantNotFound
		}
		return nil, err
	}

	invalidateCache(ctx, s.cache, product.Slug)
	s.notifier.NotifyVariantUpdated(product, row.ID)

	v := row.ToVariant()
	return &v, nil
}

// UploadVariantImage stores a new image for a variant and replaces the previous one.
func (s *CatalogService) UploadVariantImage(ctx context.Context, productID int, variantID string, up ImageUpload) (*variant.Variant, error) {
	if s.storage == nil {
		return nil, utils.ErrStorageUnavailable
	}
	if s.maxUploadBytes > 0 && up.Size > s.maxUploadBytes {
		return nil, utils.ErrImageTooLarge
	}
	if !storage.AllowedExt(up.Filename) {
		return nil, utils.ErrInvalidImage
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(up.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	if !allowedImageTypes[contentType] {
		return nil, utils.ErrInvalidImage
	}

	unlock := s.locks.lock(productID)
	defer unlock()

	product, row, err := s.loadVariant(ctx, productID, variantID)
	if err != nil {
		return nil, err
	}

	res, err := s.storage.Put(ctx, io.MultiReader(bytes.NewReader(head), up.Body), storage.PutInput{
		Filename:    up.Filename,
		ContentType: contentType,
		Size:        up.Size,
	})
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	if err := s.variantRepo.SetImage(ctx, productID, row.ID, &res.URL); err != nil {
		if delErr := s.storage.Delete(ctx, res.Key); delErr != nil {
			log.Warn().Err(delErr).Str("key", res.Key).Msg("Failed to clean up uploaded image")
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrVariantNotFound
		}
		return nil, err
	}

	if row.Image != nil && *row.Image != res.URL {
		deleteImages(ctx, s.storage, []string{*row.Image})
	}
	row.Image = &res.URL

	log.Info().Int("product_id", productID).Str("variant_id", row.ID).Str("key", res.Key).Msg("Variant image uploaded")
	invalidateCache(ctx, s.cache, product.Slug)
	s.notifier.NotifyVariantUpdated(product, row.ID)

	v := row.ToVariant()
	return &v, nil
}

// RemoveVariantImage clears the image of a variant. Removing an absent image is a no-op.
func (s *CatalogService) RemoveVariantImage(ctx context.Context, productID int, variantID string) (*variant.Variant, error) {
	unlock := s.locks.lock(productID)
	defer unlock()

	product, row, err := s.loadVariant(ctx, productID, variantID)
	if err != nil {
		return nil, err
	}
	if row.Image == nil {
		v := row.ToVariant()
		return &v, nil
	}

	if err := s.variantRepo.SetImage(ctx, productID, row.ID, nil); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrVariantNotFound
		}
		return nil, err
	}
	deleteImages(ctx, s.storage, []string{*row.Image})
	row.Image = nil

	invalidateCache(ctx, s.cache, product.Slug)
	s.notifier.NotifyVariantUpdated(product, row.ID)

	v := row.ToVariant()
	return &v, nil
}

// checkLimits reports whether options fit the configured size limits.
func (s *CatalogService) checkLimits(opts []variant.Option) error {
	if len(opts) > s.limits.MaxOptions {
		return fmt.Errorf("%w: %d options, at most %d allowed", utils.ErrTooManyOptions, len(opts), s.limits.MaxOptions)
	}
	for _, o := range opts {
		if len(o.Values) > s.limits.MaxValues {
			return fmt.Errorf("%w: option %q has %d values, at most %d allowed", utils.ErrTooManyValues, o.Title, len(o.Values), s.limits.MaxValues)
		}
	}
	if n := variant.CountCombinations(opts); n > s.limits.MaxCombinations {
		return fmt.Errorf("%w: %d combinations, at most %d allowed", utils.ErrTooManyCombinations, n, s.limits.MaxCombinations)
	}
	return nil
}

func (s *CatalogService) loadVariant(ctx context.Context, productID int, variantID string) (*models.Product, *models.ProductVariant, error) {
	product, err := loadProduct(ctx, s.productRepo, productID)
	if err != nil {
		return nil, nil, err
	}
	row, err := s.variantRepo.GetByID(ctx, productID, variantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, utils.ErrVariantNotFound
		}
		return nil, nil, err
	}
	return product, row, nil
}

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

func (s *CatalogService) newID() string {
	if s.generator.NewID != nil {
		return s.generator.NewID()
	}
	return variant.NewID()
}

func defaultsOf(p *models.Product) variant.Defaults {
	return variant.Defaults{Price: p.Price, InventoryQuantity: p.InventoryQuantity}
}

// normalizeFormVariants gives blank ids a fresh one and keeps only the first variant per
// id, so no id can end up on two generated variants.
func normalizeFormVariants(form []variant.Variant, newID func() string) []variant.Variant {
	seen := make(map[string]bool, len(form))
	out := make([]variant.Variant, 0, len(form))
	for _, v := range form {
		if strings.TrimSpace(v.ID) == "" {
			v.ID = newID()
		}
		if seen[v.ID] {
			continue
		}
		seen[v.ID] = true
		out = append(out, v)
	}
	return out
}

// withStoredImages replaces the images of form variants with those of the stored variant
// of the same id. Images only change through the upload endpoints.
func withStoredImages(form, stored []variant.Variant) []variant.Variant {
	images := make(map[string]*string, len(stored))
	for _, v := range stored {
		images[v.ID] = v.Image
	}
	out := make([]variant.Variant, len(form))
	for i, v := range form {
		v.Image = nil
		if img := images[v.ID]; img != nil {
			s := *img
			v.Image = &s
		}
		out[i] = v
	}
	return out
}

// productLocks serializes writes per product within this process.
type productLocks struct {
	mu sync.Mutex
	m  map[int]*productLock
}

type productLock struct {
	mu   sync.Mutex
	refs int
}

func (l *productLocks) lock(id int) func() {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[int]*productLock)
	}
	pl, ok := l.m[id]
	if !ok {
		pl = &productLock{}
		l.m[id] = pl
	}
	pl.refs++
	l.mu.Unlock()

	pl.mu.Lock()
	return func() {
		pl.mu.Unlock()
		l.mu.Lock()
		pl.refs--
		if pl.refs == 0 {
			delete(l.m, id)
		}
		l.mu.Unlock()
	}
}
