package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/GTDGit/gtd_catalog/internal/variant"
)

// Product represents a product definition in the catalog.
// Price and InventoryQuantity are the defaults new variants start from.
type Product struct {
	ID                int             `db:"id" json:"id"`
	Slug              string          `db:"slug" json:"slug"`
	Name              string          `db:"name" json:"name"`
	Description       string          `db:"description" json:"description"`
	Price             decimal.Decimal `db:"price" json:"price"`
	InventoryQuantity int             `db:"inventory_quantity" json:"inventoryQuantity"`
	IsActive          bool            `db:"is_active" json:"isActive"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updatedAt"`

	// Calculated by admin listing queries
	VariantCount int `db:"variant_count" json:"variantCount"`
}

// ProductDetail is a product with its rank-ordered options and its variants.
type ProductDetail struct {
	Product
	Options  []variant.Option  `json:"options"`
	Variants []variant.Variant `json:"variants"`
}

// maxPrice is the exclusive upper bound of the NUMERIC(14, 2) price columns.
var maxPrice = decimal.New(1, 12)

// ValidPrice reports whether d can be stored as a price without rounding: non-negative,
// at most two decimal places and below 10^12.
func ValidPrice(d decimal.Decimal) bool {
	return !d.IsNegative() && d.Equal(d.Truncate(2)) && d.LessThan(maxPrice)
}
