// Package variant builds product variants from product options.
//
// A product with options Color {Red, Blue} and Size {S, M} has four variants, one per
// combination of values. Every edit to the options produces a complete replacement list;
// variants whose combination survives the edit keep their id, price, inventory quantity
// and image.
package variant

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ID prefixes for generated identifiers.
const (
	OptionIDPrefix      = "opt_"
	OptionValueIDPrefix = "optval_"
	VariantIDPrefix     = "variant_"
)

// Stored column sizes. Ids are unique per product, not globally.
const (
	MaxIDLength   = 64
	MaxTextLength = 255
)

// Option is one customization axis of a product, e.g. "Color".
type Option struct {
	ID     string        `json:"id"`
	Title  string        `json:"title"`
	Rank   int           `json:"rank"`
	Values []OptionValue `json:"values"`
}

// OptionValue is one allowed value of an option, e.g. "Red". The same shape is used for
// the per-variant snapshot of the selected value.
type OptionValue struct {
	ID       string `json:"id"`
	Value    string `json:"value"`
	Rank     int    `json:"rank"`
	OptionID string `json:"optionId"`
}

// Variant is one purchasable SKU: exactly one value per option.
type Variant struct {
	ID                string          `json:"id"`
	Price             decimal.Decimal `json:"price"`
	InventoryQuantity int             `json:"inventoryQuantity"`
	Image             *string         `json:"image"`
	OptionValues      []OptionValue   `json:"optionValues"`
}

// Defaults are applied to combinations that have no matching existing variant.
type Defaults struct {
	Price             decimal.Decimal
	InventoryQuantity int
}

// NewID returns a fresh variant id.
func NewID() string {
	return VariantIDPrefix + uuid.NewString()
}

// NewOptionID returns a fresh option id.
func NewOptionID() string {
	return OptionIDPrefix + uuid.NewString()
}

// NewOptionValueID returns a fresh option value id.
func NewOptionValueID() string {
	return OptionValueIDPrefix + uuid.NewString()
}
