package quotations

import (
	"time"

	salesshared "github.com/hairline-erp/hairline/internal/sales/shared"
)

type QuotationStatus string

const (
	QuotationStatusDraft     QuotationStatus = "draft"
	QuotationStatusSent      QuotationStatus = "sent"
	QuotationStatusApproved  QuotationStatus = "approved"
	QuotationStatusRejected  QuotationStatus = "rejected"
	QuotationStatusConverted QuotationStatus = "converted"
)

type Quotation struct {
	ID          int64           `json:"id"`
	Number      string          `json:"number"`
	CustomerID  int64           `json:"customer_id"`
	PriceTierID *int64          `json:"price_tier_id,omitempty"`
	Revision    int             `json:"revision"`
	Status      QuotationStatus `json:"status"`

	salesshared.Fees
	salesshared.Totals

	PaymentMethod   string             `json:"payment_method"`
	Notes           string             `json:"notes"`
	RejectionReason *string            `json:"rejection_reason,omitempty"`
	SalesOrderID    *int64             `json:"sales_order_id,omitempty"`
	CreatedBy       int64              `json:"created_by"`
	CreatedAt       time.Time          `json:"created_at"`
	RevisedAt       time.Time          `json:"revised_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	Lines           []salesshared.Line `json:"lines"`
}

// RevisionTag renders the revision as R0..R5.
func (q Quotation) RevisionTag() string {
	return salesshared.Revision(q.Revision)
}

// EditWindowCloses returns the start of the business day after the quotation was
// created or last revised. Edits at or after that instant are refused.
func (q Quotation) EditWindowCloses(loc *time.Location) time.Time {
	t := q.RevisedAt.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, loc)
}

func (q Quotation) editableStatus() bool {
	return q.Status == QuotationStatusDraft
}
