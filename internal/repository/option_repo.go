package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/GTDGit/gtd_catalog/internal/database"
	"github.com/GTDGit/gtd_catalog/internal/models"
	"github.com/GTDGit/gtd_catalog/internal/variant"
)

// OptionRepository handles data access for product options and their values.
type OptionRepository struct {
	db *sqlx.DB
}

// NewOptionRepository creates a new OptionRepository.
func NewOptionRepository(db *sqlx.DB) *OptionRepository {
	return &OptionRepository{db: db}
}

// ListByProduct returns the options of a product ordered by rank, each with its values
// ordered by rank.
func (r *OptionRepository) ListByProduct(ctx context.Context, productID int) ([]variant.Option, error) {
	var optRows []models.ProductOption
	if err := r.db.SelectContext(ctx, &optRows, `
		SELECT id, product_id, title, rank
		FROM product_options
		WHERE product_id = $1
		ORDER BY rank, id`, productID); err != nil {
		return nil, err
	}

	var valRows []models.ProductOptionValue
	if err := r.db.SelectContext(ctx, &valRows, `
		SELECT id, option_id, product_id, value, rank
		FROM product_option_values
		WHERE product_id = $1
		ORDER BY option_id, rank, id`, productID); err != nil {
		return nil, err
	}

	byOption := make(map[string][]variant.OptionValue, len(optRows))
	for _, v := range valRows {
		byOption[v.OptionID] = append(byOption[v.OptionID], variant.OptionValue{
			ID:       v.ID,
			Value:    v.Value,
			Rank:     v.Rank,
			OptionID: v.OptionID,
		})
	}

	options := make([]variant.Option, 0, len(optRows))
	for _, o := range optRows {
		values := byOption[o.ID]
		if values == nil {
			values = []variant.OptionValue{}
		}
		options = append(options, variant.Option{
			ID:     o.ID,
			Title:  o.Title,
			Rank:   o.Rank,
			Values: values,
		})
	}
	return options, nil
}

// SaveWithVariants replaces the option set of a product and applies the variant plan in
// one transaction. Either everything is written or nothing is.
func (r *OptionRepository) SaveWithVariants(ctx context.Context, productID int, options []variant.Option, plan variant.SyncPlan) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		// Values cascade with their options.
		if _, err := tx.ExecContext(ctx, `DELETE FROM product_options WHERE product_id = $1`, productID); err != nil {
			return err
		}

		for _, o := range options {
			row := models.ProductOption{ID: o.ID, ProductID: productID, Title: o.Title, Rank: o.Rank}
			if _, err := tx.NamedExecContext(ctx, `
				INSERT INTO product_options (id, product_id, title, rank)
				VALUES (:id, :product_id, :title, :rank)`, row); err != nil {
				return err
			}
			for _, v := range o.Values {
				vrow := models.ProductOptionValue{ID: v.ID, OptionID: o.ID, ProductID: productID, Value: v.Value, Rank: v.Rank}
				if _, err := tx.NamedExecContext(ctx, `
					INSERT INTO product_option_values (id, option_id, product_id, value, rank)
					VALUES (:id, :option_id, :product_id, :value, :rank)`, vrow); err != nil {
					return err
				}
			}
		}

		if len(plan.Delete) > 0 {
			ids := make([]string, len(plan.Delete))
			for i, v := range plan.Delete {
				ids[i] = v.ID
			}
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM product_variants WHERE product_id = $1 AND id = ANY($2)`,
				productID, pq.Array(ids)); err != nil {
				return err
			}
		}

		for _, v := range plan.Insert {
			if _, err := tx.NamedExecContext(ctx, `
				INSERT INTO product_variants (id, product_id, price, inventory_quantity, image, option_values)
				VALUES (:id, :product_id, :price, :inventory_quantity, :image, :option_values)`,
				models.NewProductVariant(productID, v)); err != nil {
				return err
			}
		}

		for _, v := range plan.Update {
			if _, err := tx.NamedExecContext(ctx, `
				UPDATE product_variants
				SET price = :price, inventory_quantity = :inventory_quantity,
				    image = :image, option_values = :option_values, updated_at = NOW()
				WHERE id = :id AND product_id = :product_id`,
				models.NewProductVariant(productID, v)); err != nil {
				return err
			}
		}
		return nil
	})
}
