package joborders

import (
	"time"

	"github.com/shopspring/decimal"

	salesshared "github.com/hairline-erp/hairline/internal/sales/shared"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// JobOrder tracks production of a confirmed sales order. It shares the order's number;
// duplicates carry no sales order link and draw a fresh number from the sales order series.
type JobOrder struct {
	ID           int64     `json:"id"`
	Number       string    `json:"number"`
	SalesOrderID *int64    `json:"sales_order_id,omitempty"`
	SourceID     *int64    `json:"source_id,omitempty"`
	CustomerID   int64     `json:"customer_id"`
	Status       Status    `json:"status"`
	Notes        string    `json:"notes"`
	CreatedBy    int64     `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Lines        []Line    `json:"lines"`
}

type Line struct {
	ID           int64           `json:"id"`
	LineNo       int             `json:"line_no"`
	ProductID    int64           `json:"product_id"`
	Description  string          `json:"description"`
	Unit         string          `json:"unit"`
	ToProduce    decimal.Decimal `json:"to_produce"`
	Reserved     decimal.Decimal `json:"reserved"`
	Ready        decimal.Decimal `json:"ready"`
	Shipped      decimal.Decimal `json:"shipped"`
	OrderBalance decimal.Decimal `json:"order_balance"`
}

// LinesFromOrder seeds production counters from sales order lines:
// to_produce = order_balance = quantity, everything else zero.
func LinesFromOrder(lines []salesshared.Line) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = Line{
			LineNo:       i + 1,
			ProductID:    l.ProductID,
			Description:  l.Description,
			Unit:         l.Unit,
			ToProduce:    l.Quantity,
			Reserved:     decimal.Zero,
			Ready:        decimal.Zero,
			Shipped:      decimal.Zero,
			OrderBalance: l.Quantity,
		}
	}
	return out
}

// deriveStatus: untouched lines are pending, fully shipped lines complete the order.
func deriveStatus(lines []Line) Status {
	if len(lines) == 0 {
		return StatusPending
	}
	started, done := false, true
	for _, l := range lines {
		if l.Reserved.IsPositive() || l.Ready.IsPositive() || l.Shipped.IsPositive() {
			started = true
		}
		if l.Shipped.LessThan(l.ToProduce) {
			done = false
		}
	}
	switch {
	case done:
		return StatusCompleted
	case started:
		return StatusInProgress
	}
	return StatusPending
}

type ProgressInput struct {
	Lines []LineProgress `json:"lines" validate:"required,min=1,dive"`
	Notes *string        `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// LineProgress sets absolute counter values; nil leaves a counter unchanged.
type LineProgress struct {
	LineID   int64            `json:"line_id" validate:"required,gt=0"`
	Reserved *decimal.Decimal `json:"reserved,omitempty" validate:"omitempty,gte=0"`
	Ready    *decimal.Decimal `json:"ready,omitempty" validate:"omitempty,gte=0"`
	Shipped  *decimal.Decimal `json:"shipped,omitempty" validate:"omitempty,gte=0"`
}
