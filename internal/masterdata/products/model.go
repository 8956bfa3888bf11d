package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product entity. Stock is derived from the inventory ledger.
type Product struct {
	ID        int64           `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	BasePrice decimal.Decimal `json:"base_price"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type ProductForm struct {
	SKU       string          `json:"sku" validate:"required,max=64"`
	Name      string          `json:"name" validate:"required,max=200"`
	Unit      string          `json:"unit" validate:"required,oneof=bundle gram pcs set pack"`
	BasePrice decimal.Decimal `json:"base_price" validate:"gte=0"`
	IsActive  *bool           `json:"is_active,omitempty"`
}
