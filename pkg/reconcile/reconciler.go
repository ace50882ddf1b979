// Package reconcile decides, per product group, whether to create a catalog
// product or update an existing one, and carries the decision out.
package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/heinrichb/stocksync/pkg/catalog"
	"github.com/heinrichb/stocksync/pkg/product"
)

// Catalog is the subset of the catalog API a run needs.
type Catalog interface {
	FindProductByName(ctx context.Context, name string) (*catalog.ProductDetail, error)
	CreateProduct(ctx context.Context, g product.Group) (*catalog.CreatedProduct, error)
	ListVariants(ctx context.Context, productID int) ([]catalog.RemoteVariant, error)
	UpdateVariantInventory(ctx context.Context, productID, variantID, level int) error
	CreateVariant(ctx context.Context, productID int, v product.Variant) error
}

// Reconciler pushes feed inventory levels onto an existing catalog product.
type Reconciler struct {
	catalog               Catalog
	logger                *zap.Logger
	createMissingVariants bool
}

/*
Reconcile overwrites the inventory of every remote variant of productID whose
SKU appears in updated.

Remote variants missing from updated are logged and left untouched. Variants in
updated that the product lacks are only created when createMissingVariants is
set, and only if they have stock. A failed update is counted and does not stop
the remaining variants.

Returns an error only when the remote variant list cannot be fetched.
*/
func (r *Reconciler) Reconcile(ctx context.Context, productID int, updated []product.Variant) (VariantReport, error) {
	var report VariantReport

	existing, err := r.catalog.ListVariants(ctx, productID)
	if err != nil {
		return report, fmt.Errorf("failed to retrieve variants of product %d: %w", productID, err)
	}

	remoteSKUs := make(map[string]struct{}, len(existing))
	for _, remote := range existing {
		remoteSKUs[remote.SKU] = struct{}{}

		v, ok := product.FindVariant(updated, remote.SKU)
		if !ok {
			report.NotInFeed++
			r.logger.Info(fmt.Sprintf("SKU %s not found in update list.", remote.SKU),
				zap.Int("productId", productID),
				zap.Int("variantId", remote.ID),
			)
			continue
		}

		if err := r.catalog.UpdateVariantInventory(ctx, productID, remote.ID, v.InventoryLevel); err != nil {
			report.Failed++
			r.logger.Error("Error updating inventory",
				zap.String("sku", remote.SKU),
				zap.Int("productId", productID),
				zap.Int("variantId", remote.ID),
				zap.Error(err),
			)
			continue
		}
		report.Updated++
		r.logger.Info("Inventory updated",
			zap.String("sku", remote.SKU),
			zap.Int("inventoryLevel", v.InventoryLevel),
		)
	}

	if r.createMissingVariants {
		for _, v := range product.InStock(updated) {
			if _, ok := remoteSKUs[v.SKU]; ok {
				continue
			}
			if err := r.catalog.CreateVariant(ctx, productID, v); err != nil {
				report.Failed++
				r.logger.Error("Error creating variant",
					zap.String("sku", v.SKU),
					zap.Int("productId", productID),
					zap.Error(err),
				)
				continue
			}
			report.Created++
		}
	}

	return report, nil
}
