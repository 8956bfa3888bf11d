package warehouses

import (
	"time"
)

// Warehouse represents a stock location. Exactly one warehouse may be the
// reserved bucket that confirmed sales orders move stock into.
type Warehouse struct {
	ID               int64     `json:"id"`
	Code             string    `json:"code"`
	Name             string    `json:"name"`
	Address          string    `json:"address"`
	IsReservedBucket bool      `json:"is_reserved_bucket"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type WarehouseForm struct {
	Code     string `json:"code" validate:"required,max=32"`
	Name     string `json:"name" validate:"required,max=120"`
	Address  string `json:"address" validate:"max=500"`
	IsActive *bool  `json:"is_active,omitempty"`
}
