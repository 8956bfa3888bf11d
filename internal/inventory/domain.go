package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType enumerates supported ledger movements.
type MovementType string

const (
	MovementReceipt       MovementType = "receipt"
	MovementIssue         MovementType = "issue"
	MovementReservation   MovementType = "reservation"
	MovementTransferOut   MovementType = "transfer_out"
	MovementTransferIn    MovementType = "transfer_in"
	MovementAdjustmentIn  MovementType = "adjustment_in"
	MovementAdjustmentOut MovementType = "adjustment_out"
)

// Inbound reports whether the type adds stock.
func (t MovementType) Inbound() bool {
	switch t {
	case MovementReceipt, MovementReservation, MovementTransferIn, MovementAdjustmentIn:
		return true
	}
	return false
}

// Valid reports whether t is a known movement type.
func (t MovementType) Valid() bool {
	switch t {
	case MovementReceipt, MovementIssue, MovementReservation, MovementTransferOut,
		MovementTransferIn, MovementAdjustmentIn, MovementAdjustmentOut:
		return true
	}
	return false
}

// guarded types may not drive stock below zero.
func (t MovementType) guarded() bool {
	return t == MovementIssue || t == MovementTransferOut
}

// Movement is one append-only ledger row. Quantity is signed.
type Movement struct {
	ID          int64           `json:"id"`
	WarehouseID int64           `json:"warehouse_id"`
	ProductID   int64           `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Type        MovementType    `json:"movement_type"`
	ReferenceID string          `json:"reference_id,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	CreatedBy   int64           `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
}

// MovementInput describes a single movement to post. Quantity carries the sign.
type MovementInput struct {
	WarehouseID int64           `json:"warehouse_id" validate:"required,gt=0"`
	ProductID   int64           `json:"product_id" validate:"required,gt=0"`
	Quantity    decimal.Decimal `json:"quantity"`
	Type        MovementType    `json:"movement_type" validate:"required"`
	ReferenceID string          `json:"reference_id" validate:"max=100"`
	Reason      string          `json:"reason" validate:"max=500"`
}

// TransferInput moves stock between warehouses.
type TransferInput struct {
	ProductID       int64           `json:"product_id" validate:"required,gt=0"`
	FromWarehouseID int64           `json:"from_warehouse_id" validate:"required,gt=0"`
	ToWarehouseID   int64           `json:"to_warehouse_id" validate:"required,gt=0,nefield=FromWarehouseID"`
	Quantity        decimal.Decimal `json:"quantity" validate:"gt=0"`
	Reason          string          `json:"reason" validate:"max=500"`
}

// TransferResult holds both legs of a transfer.
type TransferResult struct {
	ReferenceID string   `json:"reference_id"`
	Out         Movement `json:"out"`
	In          Movement `json:"in"`
}

// AdjustmentInput corrects stock after a count. The sign of Quantity picks the direction.
type AdjustmentInput struct {
	WarehouseID int64           `json:"warehouse_id" validate:"required,gt=0"`
	ProductID   int64           `json:"product_id" validate:"required,gt=0"`
	Quantity    decimal.Decimal `json:"quantity"`
	Reason      string          `json:"reason" validate:"required,max=500"`
}

// StockLevel is the derived stock of a (warehouse, product) pair.
type StockLevel struct {
	WarehouseID   int64           `json:"warehouse_id"`
	WarehouseCode string          `json:"warehouse_code"`
	ProductID     int64           `json:"product_id"`
	SKU           string          `json:"sku"`
	ProductName   string          `json:"product_name"`
	Unit          string          `json:"unit"`
	Quantity      decimal.Decimal `json:"quantity"`
}

// StockCardEntry is a movement with the running balance after it.
type StockCardEntry struct {
	Movement
	Balance decimal.Decimal `json:"balance"`
}

// StockCardFilter filters card entries.
type StockCardFilter struct {
	WarehouseID int64
	ProductID   int64
	Limit       int
}
