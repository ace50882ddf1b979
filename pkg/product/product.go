// Package product holds the parent/variant model shared by the feed parser,
// the catalog client and the reconciler.
package product

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// InventoryTrackingVariant tells the catalog stock is tracked per variant.
	InventoryTrackingVariant = "variant"

	// SizeOptionName is the display name of the single option every variant carries.
	SizeOptionName = "Size"
)

/*
OptionValue is one option a variant is defined by. Feed variants carry
exactly one, the size.

OptionID is kept on the model but never sent when creating products; the
catalog resolves options by display name.
*/
type OptionValue struct {
	Label             string `json:"label"`
	OptionID          int    `json:"option_id"`
	OptionDisplayName string `json:"option_display_name"`
}

// Variant is a size-specific child of a Group.
type Variant struct {
	SKU            string          `json:"sku"`
	Price          decimal.Decimal `json:"price"`
	MPN            string          `json:"mpn"`
	InventoryLevel int             `json:"inventory_level"`
	OptionValues   []OptionValue   `json:"option_values"`
}

/*
Group is the parent product built from every feed row sharing one
(ean, color) pair.

Fields:
  - Name:              "{name} {color} {ean}", unique per catalog.
  - SKU:               SKU of the first feed row seen for the key.
  - Price:             price of the first feed row seen for the key.
  - MPN:               the feed EAN.
  - InventoryTracking: always "variant".
  - IsVisible:         always false; new products are curated before going live.
  - Variants:          one entry per feed row, in file order.
*/
type Group struct {
	Name              string          `json:"name"`
	SKU               string          `json:"sku"`
	Price             decimal.Decimal `json:"price"`
	MPN               string          `json:"mpn"`
	InventoryTracking string          `json:"inventory_tracking"`
	IsVisible         bool            `json:"is_visible"`
	Variants          []Variant       `json:"variants"`
}

// GroupKey is the composite key feed rows are grouped by.
func GroupKey(ean, color string) string {
	return fmt.Sprintf("%s_%s", ean, color)
}

// GroupName composes the catalog name for an (ean, color) group.
func GroupName(name, color, ean string) string {
	return fmt.Sprintf("%s %s %s", name, color, ean)
}

// VariantSKU synthesizes the per-size SKU. It is unique within a feed by construction.
func VariantSKU(ean, color, size string) string {
	return fmt.Sprintf("%s-%s-%s", ean, color, size)
}

// SizeOption returns the option value describing a variant's size.
func SizeOption(size string) OptionValue {
	return OptionValue{Label: size, OptionID: 0, OptionDisplayName: SizeOptionName}
}

// Size returns the label of the variant's size option, or "" if it has none.
func (v Variant) Size() string {
	if len(v.OptionValues) == 0 {
		return ""
	}
	return v.OptionValues[0].Label
}

// InStock returns the variants with a positive inventory level, preserving order.
func InStock(variants []Variant) []Variant {
	out := make([]Variant, 0, len(variants))
	for _, v := range variants {
		if v.InventoryLevel > 0 {
			out = append(out, v)
		}
	}
	return out
}

// WithVariants returns a copy of g carrying the given variants instead of its own.
func (g Group) WithVariants(variants []Variant) Group {
	g.Variants = variants
	return g
}

// FindVariant returns the variant whose SKU matches sku.
func FindVariant(variants []Variant, sku string) (Variant, bool) {
	for _, v := range variants {
		if v.SKU == sku {
			return v, true
		}
	}
	return Variant{}, false
}
