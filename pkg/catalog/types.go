package catalog

import (
	"encoding/json"

	"github.com/heinrichb/stocksync/pkg/product"
)

// Wire values fixed for every product the sync creates.
const (
	productTypePhysical = "physical"
	productWeight       = 0
	variantWeight       = 0.1
)

// ProductDetail identifies a product found in the catalog.
type ProductDetail struct {
	ProductID int    `json:"id"`
	Name      string `json:"name"`
	SKU       string `json:"sku"`
}

// CreatedProduct is the part of a create response the sync reads back.
type CreatedProduct struct {
	ID  int    `json:"id"`
	SKU string `json:"sku"`
}

// RemoteVariant is a variant as it exists in the catalog.
type RemoteVariant struct {
	ID             int    `json:"id"`
	ProductID      int    `json:"product_id"`
	SKU            string `json:"sku"`
	InventoryLevel int    `json:"inventory_level"`
}

// searchResponse is the body of GET {base}?name=...
type searchResponse struct {
	Data []ProductDetail `json:"data"`
}

// createProductResponse is the body of POST {base}.
type createProductResponse struct {
	Data *CreatedProduct `json:"data"`
}

// variantListResponse is the body of GET {base}/{id}/variants.
type variantListResponse struct {
	Data *[]RemoteVariant `json:"data"`
}

// optionValuePayload leaves out option_id; the catalog matches options by display name.
type optionValuePayload struct {
	Label             string `json:"label"`
	OptionDisplayName string `json:"option_display_name"`
}

type variantPayload struct {
	ProductID      int                  `json:"product_id,omitempty"`
	Price          json.Number          `json:"price"`
	Weight         float64              `json:"weight"`
	SKU            string               `json:"sku"`
	MPN            string               `json:"mpn,omitempty"`
	InventoryLevel int                  `json:"inventory_level"`
	OptionValues   []optionValuePayload `json:"option_values"`
}

type createProductPayload struct {
	Name              string           `json:"name"`
	Type              string           `json:"type"`
	Price             json.Number      `json:"price"`
	Weight            float64          `json:"weight"`
	SKU               string           `json:"sku"`
	InventoryTracking string           `json:"inventory_tracking"`
	IsVisible         bool             `json:"is_visible"`
	MPN               string           `json:"mpn"`
	Variants          []variantPayload `json:"variants"`
}

type inventoryUpdatePayload struct {
	InventoryLevel int `json:"inventory_level"`
}

func newVariantPayload(v product.Variant) variantPayload {
	return variantPayload{
		Price:          json.Number(v.Price.String()),
		Weight:         variantWeight,
		SKU:            v.SKU,
		MPN:            v.MPN,
		InventoryLevel: v.InventoryLevel,
		OptionValues: []optionValuePayload{{
			Label:             v.Size(),
			OptionDisplayName: product.SizeOptionName,
		}},
	}
}

func newCreateProductPayload(g product.Group) createProductPayload {
	variants := make([]variantPayload, 0, len(g.Variants))
	for _, v := range g.Variants {
		variants = append(variants, newVariantPayload(v))
	}
	return createProductPayload{
		Name:              g.Name,
		Type:              productTypePhysical,
		Price:             json.Number(g.Price.String()),
		Weight:            productWeight,
		SKU:               g.SKU,
		InventoryTracking: product.InventoryTrackingVariant,
		IsVisible:         false,
		MPN:               g.MPN,
		Variants:          variants,
	}
}
