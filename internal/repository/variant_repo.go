package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/gtd_catalog/internal/models"
	"github.com/GTDGit/gtd_catalog/internal/variant"
)

// VariantRepository handles data access for product variants.
type VariantRepository struct {
	db *sqlx.DB
}

// NewVariantRepository creates a new VariantRepository.
func NewVariantRepository(db *sqlx.DB) *VariantRepository {
	return &VariantRepository{db: db}
}

// ListByProduct returns the variants of a product in generation order.
func (r *VariantRepository) ListByProduct(ctx context.Context, productID int) ([]variant.Variant, error) {
	const q = `SELECT * FROM product_variants WHERE product_id = $1 ORDER BY created_at, id`
	stmt, err := r.db.PreparexContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	var rows []models.ProductVariant
	if err := stmt.SelectContext(ctx, &rows, productID); err != nil {
		return nil, err
	}

	out := make([]variant.Variant, len(rows))
	for i, row := range rows {
		out[i] = row.ToVariant()
	}
	variant.SortVariants(out)
	return out, nil
}

// GetByID returns a single variant of a product.
func (r *VariantRepository) GetByID(ctx context.Context, productID int, id string) (*models.ProductVariant, error) {
	const q = `SELECT * FROM product_variants WHERE product_id = $1 AND id = $2 LIMIT 1`
	stmt, err := r.db.PreparexContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	var v models.ProductVariant
	if err := stmt.GetContext(ctx, &v, productID, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &v, nil
}

// UpdateStock writes price and inventory quantity of a variant.
func (r *VariantRepository) UpdateStock(ctx context.Context, v *models.ProductVariant) error {
	query := `UPDATE product_variants
              SET price = $1, inventory_quantity = $2, updated_at = NOW()
              WHERE product_id = $3 AND id = $4
              RETURNING updated_at`
	return r.db.QueryRowxContext(ctx, query, v.Price, v.InventoryQuantity, v.ProductID, v.ID).
		Scan(&v.UpdatedAt)
}

// SetImage sets or clears (nil) the image of a variant.
func (r *VariantRepository) SetImage(ctx context.Context, productID int, id string, image *string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE product_variants SET image = $1, updated_at = NOW() WHERE product_id = $2 AND id = $3`,
		image, productID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListImages returns every image URL referenced by the variants of a product.
func (r *VariantRepository) ListImages(ctx context.Context, productID int) ([]string, error) {
	var images []string
	if err := r.db.SelectContext(ctx, &images,
		`SELECT image FROM product_variants WHERE product_id = $1 AND image IS NOT NULL`, productID); err != nil {
		return nil, err
	}
	return images, nil
}
