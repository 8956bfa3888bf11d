package inventory

import (
	"context"
	"fmt"

	"github.com/hairline-erp/hairline/internal/masterdata/warehouses"
	"github.com/hairline-erp/hairline/internal/pricing"
)

// WarehouseLookup loads a warehouse by id.
type WarehouseLookup interface {
	Get(ctx context.Context, id int64) (warehouses.Warehouse, error)
}

// CatalogLabels names ledger pairs from master data, falling back to ids.
type CatalogLabels struct {
	Products   pricing.ProductLookup
	Warehouses WarehouseLookup
}

func (c CatalogLabels) ProductLabel(ctx context.Context, id int64) (string, string) {
	p, err := c.Products.Product(ctx, id)
	if err != nil {
		return fmt.Sprintf("product #%d", id), ""
	}
	return p.Name, p.Unit
}

func (c CatalogLabels) WarehouseLabel(ctx context.Context, id int64) string {
	w, err := c.Warehouses.Get(ctx, id)
	if err != nil {
		return fmt.Sprintf("warehouse #%d", id)
	}
	return w.Name
}
