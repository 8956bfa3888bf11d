package orders

import (
	"time"

	salesshared "github.com/hairline-erp/hairline/internal/sales/shared"
)

type SalesOrderStatus string

const (
	SalesOrderStatusDraft     SalesOrderStatus = "draft"
	SalesOrderStatusConfirmed SalesOrderStatus = "confirmed"
)

type SalesOrder struct {
	ID          int64            `json:"id"`
	Number      string           `json:"number"`
	QuotationID *int64           `json:"quotation_id,omitempty"`
	CustomerID  int64            `json:"customer_id"`
	PriceTierID *int64           `json:"price_tier_id,omitempty"`
	Revision    int              `json:"revision"`
	Status      SalesOrderStatus `json:"status"`
	IsConfirmed bool             `json:"is_confirmed"`

	salesshared.Fees
	salesshared.Totals

	PaymentMethod string             `json:"payment_method"`
	Notes         string             `json:"notes"`
	DueDate       *time.Time         `json:"due_date,omitempty"`
	CreatedBy     int64              `json:"created_by"`
	ConfirmedBy   *int64             `json:"confirmed_by,omitempty"`
	ConfirmedAt   *time.Time         `json:"confirmed_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	Lines         []salesshared.Line `json:"lines"`
}

func (o SalesOrder) RevisionTag() string {
	return salesshared.Revision(o.Revision)
}

// Locked reports whether the order can no longer be edited or deleted.
func (o SalesOrder) Locked() bool {
	return o.IsConfirmed || o.Status == SalesOrderStatusConfirmed
}
