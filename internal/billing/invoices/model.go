package invoices

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hairline-erp/hairline/internal/sales/orders"
	salesshared "github.com/hairline-erp/hairline/internal/sales/shared"
	core "github.com/hairline-erp/hairline/internal/shared"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusOverdue PaymentStatus = "overdue"
)

// Invoice is a snapshot of a confirmed sales order. It shares the order's number and
// never follows later changes to the order.
type Invoice struct {
	ID           int64  `json:"id"`
	Number       string `json:"number"`
	SalesOrderID int64  `json:"sales_order_id"`
	CustomerID   int64  `json:"customer_id"`

	salesshared.Fees
	salesshared.Totals

	PaymentMethod string             `json:"payment_method"`
	DueDate       *time.Time         `json:"due_date,omitempty"`
	PaidAmount    decimal.Decimal    `json:"paid_amount"`
	PaymentStatus PaymentStatus      `json:"payment_status"`
	CreatedBy     int64              `json:"created_by"`
	IssuedAt      time.Time          `json:"issued_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	Lines         []salesshared.Line `json:"lines"`
}

// FromOrder snapshots lines and financial fields of a confirmed order.
func FromOrder(o orders.SalesOrder, createdBy int64) Invoice {
	return Invoice{
		Number:        o.Number,
		SalesOrderID:  o.ID,
		CustomerID:    o.CustomerID,
		Fees:          o.Fees,
		Totals:        o.Totals,
		PaymentMethod: o.PaymentMethod,
		DueDate:       o.DueDate,
		PaidAmount:    decimal.Zero,
		PaymentStatus: PaymentStatusPending,
		CreatedBy:     createdBy,
		Lines:         salesshared.CopyLines(o.Lines),
	}
}

func (inv Invoice) Balance() decimal.Decimal {
	return inv.Total.Sub(inv.PaidAmount)
}

// ApplyPayment adds an approved amount. Overpaying the outstanding balance is refused.
func (inv *Invoice) ApplyPayment(amount decimal.Decimal) error {
	amount = core.Round2(amount)
	if !amount.IsPositive() {
		return core.ValidationFields(map[string]string{"amount": "must be greater than zero"})
	}
	if amount.GreaterThan(inv.Balance()) {
		return core.Validation("Payment of %s exceeds the outstanding balance of %s on invoice %s.",
			amount.StringFixed(2), inv.Balance().StringFixed(2), inv.Number)
	}
	inv.PaidAmount = inv.PaidAmount.Add(amount)
	if inv.PaidAmount.GreaterThanOrEqual(inv.Total) {
		inv.PaymentStatus = PaymentStatusPaid
	} else {
		inv.PaymentStatus = PaymentStatusPartial
	}
	return nil
}
