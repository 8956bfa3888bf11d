package shared

import (
	"strconv"

	"github.com/shopspring/decimal"

	core "github.com/hairline-erp/hairline/internal/shared"
)

// Line is a priced document line shared by quotations, sales orders and invoices.
type Line struct {
	ID          int64           `json:"id"`
	LineNo      int             `json:"line_no"`
	ProductID   int64           `json:"product_id"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// LineInput is the client-supplied part of a line. A nil UnitPrice is resolved from the price tier.
type LineInput struct {
	ProductID   int64            `json:"product_id" validate:"required,gt=0"`
	Description string           `json:"description,omitempty" validate:"max=500"`
	Quantity    decimal.Decimal  `json:"quantity" validate:"required,gt=0"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
}

// Fees are the header charges applied on top of the line subtotal.
type Fees struct {
	ShippingFee decimal.Decimal `json:"shipping_fee" validate:"gte=0"`
	BankCharge  decimal.Decimal `json:"bank_charge" validate:"gte=0"`
	Discount    decimal.Decimal `json:"discount" validate:"gte=0"`
	Others      decimal.Decimal `json:"others" validate:"gte=0"`
}

// Totals are always derived from lines and fees.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Total    decimal.Decimal `json:"total"`
}

// LineTotal is round2(quantity * unitPrice).
func LineTotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return core.Round2(quantity.Mul(unitPrice))
}

// Normalize rounds fee fields to cents.
func (f Fees) Normalize() Fees {
	return Fees{
		ShippingFee: core.Round2(f.ShippingFee),
		BankCharge:  core.Round2(f.BankCharge),
		Discount:    core.Round2(f.Discount),
		Others:      core.Round2(f.Others),
	}
}

// Validate rejects negative fees.
func (f Fees) Validate() error {
	fields := map[string]string{}
	if f.ShippingFee.IsNegative() {
		fields["shipping_fee"] = "must not be negative"
	}
	if f.BankCharge.IsNegative() {
		fields["bank_charge"] = "must not be negative"
	}
	if f.Discount.IsNegative() {
		fields["discount"] = "must not be negative"
	}
	if f.Others.IsNegative() {
		fields["others"] = "must not be negative"
	}
	if len(fields) > 0 {
		return core.ValidationFields(fields)
	}
	return nil
}

// Recalculate renumbers lines, recomputes each line total and returns the header totals.
// total = subtotal + shipping + bank charge - discount + others.
func Recalculate(lines []Line, fees Fees) ([]Line, Totals) {
	out := make([]Line, len(lines))
	subtotal := decimal.Zero
	for i, line := range lines {
		line.LineNo = i + 1
		line.UnitPrice = core.Round2(line.UnitPrice)
		line.LineTotal = LineTotal(line.Quantity, line.UnitPrice)
		subtotal = subtotal.Add(line.LineTotal)
		out[i] = line
	}
	fees = fees.Normalize()
	total := subtotal.Add(fees.ShippingFee).Add(fees.BankCharge).Sub(fees.Discount).Add(fees.Others)
	return out, Totals{Subtotal: subtotal, Total: core.Round2(total)}
}

// Validate rejects a negative total. A zero total is allowed.
func (t Totals) Validate() error {
	if t.Total.IsNegative() {
		return core.ValidationFields(map[string]string{"discount": "cannot exceed subtotal plus fees"})
	}
	return nil
}

// CopyLines clones lines with fresh (zero) ids.
func CopyLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	for i, line := range lines {
		line.ID = 0
		out[i] = line
	}
	return out
}

// Revision renders a revision counter as R0..R5.
func Revision(n int) string {
	return "R" + strconv.Itoa(n)
}

// MaxRevision is the last revision tag a document may carry.
const MaxRevision = 5
