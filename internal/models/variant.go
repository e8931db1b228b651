package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GTDGit/gtd_catalog/internal/variant"
)

// ProductOption is a row of product_options.
type ProductOption struct {
	ID        string `db:"id"`
	ProductID int    `db:"product_id"`
	Title     string `db:"title"`
	Rank      int    `db:"rank"`
}

// ProductOptionValue is a row of product_option_values.
type ProductOptionValue struct {
	ID        string `db:"id"`
	OptionID  string `db:"option_id"`
	ProductID int    `db:"product_id"`
	Value     string `db:"value"`
	Rank      int    `db:"rank"`
}

// OptionValueList is the JSONB snapshot of the option values a variant selects.
type OptionValueList []variant.OptionValue

// Value implements driver.Valuer.
func (l OptionValueList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]variant.OptionValue(l))
}

// Scan implements sql.Scanner.
func (l *OptionValueList) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = OptionValueList{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("option_values: unsupported type")
	}
	var out []variant.OptionValue
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

// ProductVariant is a row of product_variants.
type ProductVariant struct {
	ID                string          `db:"id"`
	ProductID         int             `db:"product_id"`
	Price             decimal.Decimal `db:"price"`
	InventoryQuantity int             `db:"inventory_quantity"`
	Image             *string         `db:"image"`
	OptionValues      OptionValueList `db:"option_values"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
}

// ToVariant converts the row into the generator's Variant.
func (pv ProductVariant) ToVariant() variant.Variant {
	ovs := make([]variant.OptionValue, len(pv.OptionValues))
	copy(ovs, pv.OptionValues)
	return variant.Variant{
		ID:                pv.ID,
		Price:             pv.Price,
		InventoryQuantity: pv.InventoryQuantity,
		Image:             pv.Image,
		OptionValues:      ovs,
	}
}

// NewProductVariant builds a row of productID from a generated variant.
func NewProductVariant(productID int, v variant.Variant) ProductVariant {
	return ProductVariant{
		ID:                v.ID,
		ProductID:         productID,
		Price:             v.Price,
		InventoryQuantity: v.InventoryQuantity,
		Image:             v.Image,
		OptionValues:      OptionValueList(v.OptionValues),
	}
}
