// Package documents builds printable projections of sales documents: a flat header, the
// customer block, lines and totals with amounts already formatted for display.
package documents

import (
	"time"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindQuotation  Kind = "quotation"
	KindSalesOrder Kind = "sales_order"
	KindJobOrder   Kind = "job_order"
	KindInvoice    Kind = "invoice"
)

func (k Kind) Valid() bool {
	switch k {
	case KindQuotation, KindSalesOrder, KindJobOrder, KindInvoice:
		return true
	}
	return false
}

type Party struct {
	ID      int64  `json:"id"`
	Code    string `json:"code"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Email   string `json:"email,omitempty"`
}

// Amount pairs a value with its display text.
type Amount struct {
	Value decimal.Decimal `json:"value"`
	Text  string          `json:"text"`
}

type Line struct {
	No          int             `json:"no"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   *Amount         `json:"unit_price,omitempty"`
	LineTotal   *Amount         `json:"line_total,omitempty"`

	// production columns, job orders only
	Reserved     *decimal.Decimal `json:"reserved,omitempty"`
	Ready        *decimal.Decimal `json:"ready,omitempty"`
	Shipped      *decimal.Decimal `json:"shipped,omitempty"`
	OrderBalance *decimal.Decimal `json:"order_balance,omitempty"`
}

type Summary struct {
	Subtotal    Amount  `json:"subtotal"`
	ShippingFee Amount  `json:"shipping_fee"`
	BankCharge  Amount  `json:"bank_charge"`
	Discount    Amount  `json:"discount"`
	Others      Amount  `json:"others"`
	Total       Amount  `json:"total"`
	Paid        *Amount `json:"paid,omitempty"`
	Balance     *Amount `json:"balance,omitempty"`
}

type PaymentRow struct {
	Number      string    `json:"number"`
	Status      string    `json:"status"`
	Method      string    `json:"method"`
	Amount      Amount    `json:"amount"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Projection is the read-only view rendered by document templates and exports.
type Projection struct {
	Kind          Kind         `json:"kind"`
	ID            int64        `json:"id"`
	Number        string       `json:"number"`
	Revision      string       `json:"revision,omitempty"`
	Status        string       `json:"status"`
	Currency      string       `json:"currency"`
	IssuedAt      time.Time    `json:"issued_at"`
	DueDate       *time.Time   `json:"due_date,omitempty"`
	PaymentMethod string       `json:"payment_method,omitempty"`
	Notes         string       `json:"notes,omitempty"`
	Customer      Party        `json:"customer"`
	Lines         []Line       `json:"lines"`
	Summary       *Summary     `json:"summary,omitempty"`
	Payments      []PaymentRow `json:"payments,omitempty"`
}
