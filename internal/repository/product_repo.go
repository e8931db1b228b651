package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/gtd_catalog/internal/models"
)

// ProductRepository handles data access for products.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// GetByID returns a single product by id.
func (r *ProductRepository) GetByID(ctx context.Context, id int) (*models.Product, error) {
	const q = `SELECT * FROM products WHERE id = $1 LIMIT 1`
	stmt, err := r.db.PreparexContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	var p models.Product
	if err := stmt.GetContext(ctx, &p, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &p, nil
}

// GetBySlug returns a single product by slug.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	const q = `SELECT * FROM products WHERE slug = $1 LIMIT 1`
	stmt, err := r.db.PreparexContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	var p models.Product
	if err := stmt.GetContext(ctx, &p, slug); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &p, nil
}

// SlugExists reports whether slug is taken by a product other than excludeID.
func (r *ProductRepository) SlugExists(ctx context.Context, slug string, excludeID int) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM products WHERE slug = $1 AND id <> $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, q, slug, excludeID); err != nil {
		return false, err
	}
	return exists, nil
}

// Create creates a new product.
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	query := `INSERT INTO products (slug, name, description, price, inventory_quantity, is_active)
              VALUES ($1, $2, $3, $4, $5, $6)
              RETURNING id, created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		product.Slug,
		product.Name,
		product.Description,
		product.Price,
		product.InventoryQuantity,
		product.IsActive,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
}

// Update updates an existing product. Returns sql.ErrNoRows when the id is unknown.
func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	query := `UPDATE products
              SET slug = $1, name = $2, description = $3, price = $4,
                  inventory_quantity = $5, is_active = $6, updated_at = NOW()
              WHERE id = $7
              RETURNING updated_at`

	return r.db.QueryRowxContext(ctx, query,
		product.Slug,
		product.Name,
		product.Description,
		product.Price,
		product.InventoryQuantity,
		product.IsActive,
		product.ID,
	).Scan(&product.UpdatedAt)
}

// Delete deletes a product by ID. Options, values and variants go with it.
func (r *ProductRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM products WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
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

// AdminProductFilter holds filters for admin product queries.
type AdminProductFilter struct {
	Search   string
	IsActive *bool
	Page     int
	Limit    int
}

// AdminProductResult contains paginated product results for admin.
type AdminProductResult struct {
	Products   []models.Product
	TotalItems int
	TotalPages int
	Page       int
	Limit      int
}

// ListAdmin returns products for admin with filters and pagination (includes inactive).
// Each product carries its variant count.
func (r *ProductRepository) ListAdmin(ctx context.Context, filter *AdminProductFilter) (*AdminProductResult, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	offset := (filter.Page - 1) * filter.Limit

	// Build dynamic WHERE clause
	where := `WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if filter.Search != "" {
		where += fmt.Sprintf(" AND (p.name ILIKE $%d OR p.slug ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}
	if filter.IsActive != nil {
		where += fmt.Sprintf(" AND p.is_active = $%d", argIdx)
		args = append(args, *filter.IsActive)
		argIdx++
	}

	countQuery := `SELECT COUNT(1) FROM products p ` + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, err
	}

	totalPages := (total + filter.Limit - 1) / filter.Limit

	listQuery := fmt.Sprintf(`
		SELECT
			p.*,
			COALESCE(vc.variant_count, 0) AS variant_count
		FROM products p
		LEFT JOIN (
			SELECT product_id, COUNT(1) AS variant_count
			FROM product_variants
			GROUP BY product_id
		) vc ON vc.product_id = p.id
		%s
		ORDER BY p.id DESC
		LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	var products []models.Product
	if err := r.db.SelectContext(ctx, &products, listQuery, args...); err != nil {
		return nil, err
	}

	return &AdminProductResult{
		Products:   products,
		TotalItems: total,
		TotalPages: totalPages,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

// ListActive returns active products with an optional name search and pagination, and
// also returns the total count. Page begins at 1.
func (r *ProductRepository) ListActive(ctx context.Context, search string, page, limit int) ([]models.Product, int, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	offset := (page - 1) * limit

	const baseWhere = `WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
        AND is_active = true`

	countQuery := `SELECT COUNT(1) FROM products ` + baseWhere
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, search); err != nil {
		return nil, 0, err
	}

	listQuery := `SELECT * FROM products ` + baseWhere + `
        ORDER BY name, id LIMIT $2 OFFSET $3`
	var products []models.Product
	if err := r.db.SelectContext(ctx, &products, listQuery, search, limit, offset); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ListActiveSlugs returns the slugs of every active product.
func (r *ProductRepository) ListActiveSlugs(ctx context.Context) ([]string, error) {
	const q = `SELECT slug FROM products WHERE is_active = true ORDER BY id`
	var slugs []string
	if err := r.db.SelectContext(ctx, &slugs, q); err != nil {
		return nil, err
	}
	return slugs, nil
}
