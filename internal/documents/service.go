package documents

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hairline-erp/hairline/internal/billing/invoices"
	"github.com/hairline-erp/hairline/internal/billing/payments"
	"github.com/hairline-erp/hairline/internal/masterdata/customers"
	"github.com/hairline-erp/hairline/internal/production/joborders"
	"github.com/hairline-erp/hairline/internal/sales/orders"
	"github.com/hairline-erp/hairline/internal/sales/quotations"
	salesshared "github.com/hairline-erp/hairline/internal/sales/shared"
	core "github.com/hairline-erp/hairline/internal/shared"
)

type QuotationSource interface {
	Get(ctx context.Context, id int64) (quotations.Quotation, error)
}

type OrderSource interface {
	Get(ctx context.Context, id int64) (orders.SalesOrder, error)
}

type JobOrderSource interface {
	Get(ctx context.Context, id int64) (joborders.JobOrder, error)
}

type InvoiceSource interface {
	Get(ctx context.Context, id int64) (invoices.Invoice, error)
}

type PaymentSource interface {
	ListByInvoice(ctx context.Context, invoiceID int64) ([]payments.Payment, error)
}

type CustomerSource interface {
	Get(ctx context.Context, id int64) (customers.Customer, error)
}

// Sources groups the document readers the projections draw from.
type Sources struct {
	Quotations QuotationSource
	Orders     OrderSource
	JobOrders  JobOrderSource
	Invoices   InvoiceSource
	Payments   PaymentSource
	Customers  CustomerSource
}

type Service struct {
	src    Sources
	format *Formatter
}

func NewService(src Sources, format *Formatter) *Service {
	return &Service{src: src, format: format}
}

// Project loads one document with its customer (and payments, for invoices) concurrently.
func (s *Service) Project(ctx context.Context, kind Kind, id int64) (Projection, error) {
	if !kind.Valid() {
		return Projection{}, core.Validation("%q is not a printable document type.", kind)
	}

	var (
		proj       Projection
		customerID int64
	)
	// the header decides which customer to load, so it is fetched first
	switch kind {
	case KindQuotation:
		q, err := s.src.Quotations.Get(ctx, id)
		if err != nil {
			return Projection{}, err
		}
		proj = s.sales(kind, q.ID, q.Number, string(q.Status), q.CreatedAt, q.Lines, q.Fees, q.Totals)
		proj.Revision = q.RevisionTag()
		proj.PaymentMethod = q.PaymentMethod
		proj.Notes = q.Notes
		customerID = q.CustomerID
	case KindSalesOrder:
		o, err := s.src.Orders.Get(ctx, id)
		if err != nil {
			return Projection{}, err
		}
		proj = s.sales(kind, o.ID, o.Number, string(o.Status), o.CreatedAt, o.Lines, o.Fees, o.Totals)
		proj.Revision = o.RevisionTag()
		proj.PaymentMethod = o.PaymentMethod
		proj.Notes = o.Notes
		proj.DueDate = o.DueDate
		customerID = o.CustomerID
	case KindJobOrder:
		jo, err := s.src.JobOrders.Get(ctx, id)
		if err != nil {
			return Projection{}, err
		}
		proj = s.production(jo)
		customerID = jo.CustomerID
	case KindInvoice:
		inv, err := s.src.Invoices.Get(ctx, id)
		if err != nil {
			return Projection{}, err
		}
		proj = s.sales(kind, inv.ID, inv.Number, string(inv.PaymentStatus), inv.IssuedAt, inv.Lines, inv.Fees, inv.Totals)
		proj.PaymentMethod = inv.PaymentMethod
		proj.DueDate = inv.DueDate
		proj.Summary.Paid = s.format.amountPtr(inv.PaidAmount)
		proj.Summary.Balance = s.format.amountPtr(inv.Balance())
		customerID = inv.CustomerID
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.src.Customers.Get(gctx, customerID)
		if err != nil {
			return fmt.Errorf("documents: customer %d: %w", customerID, err)
		}
		proj.Customer = Party{ID: c.ID, Code: c.Code, Name: c.Name, Country: c.Country}
		if c.Email != nil {
			proj.Customer.Email = *c.Email
		}
		return nil
	})
	if kind == KindInvoice && s.src.Payments != nil {
		g.Go(func() error {
			list, err := s.src.Payments.ListByInvoice(gctx, id)
			if err != nil {
				return fmt.Errorf("documents: payments of invoice %d: %w", id, err)
			}
			rows := make([]PaymentRow, 0, len(list))
			for _, p := range list {
				rows = append(rows, PaymentRow{
					Number:      p.Number,
					Status:      string(p.Status),
					Method:      p.Method,
					Amount:      s.format.Amount(p.Amount),
					SubmittedAt: p.SubmittedAt,
				})
			}
			proj.Payments = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Projection{}, err
	}
	return proj, nil
}

func (s *Service) sales(kind Kind, id int64, number, status string, issued time.Time, lines []salesshared.Line, fees salesshared.Fees, totals salesshared.Totals) Projection {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, Line{
			No:          l.LineNo,
			Description: l.Description,
			Unit:        l.Unit,
			Quantity:    l.Quantity,
			UnitPrice:   s.format.amountPtr(l.UnitPrice),
			LineTotal:   s.format.amountPtr(l.LineTotal),
		})
	}
	return Projection{
		Kind:     kind,
		ID:       id,
		Number:   number,
		Status:   status,
		Currency: s.format.Currency(),
		IssuedAt: issued,
		Lines:    out,
		Summary: &Summary{
			Subtotal:    s.format.Amount(totals.Subtotal),
			ShippingFee: s.format.Amount(fees.ShippingFee),
			BankCharge:  s.format.Amount(fees.BankCharge),
			Discount:    s.format.Amount(fees.Discount),
			Others:      s.format.Amount(fees.Others),
			Total:       s.format.Amount(totals.Total),
		},
	}
}

// production projects a job order; it carries quantities only, never prices.
func (s *Service) production(jo joborders.JobOrder) Projection {
	out := make([]Line, 0, len(jo.Lines))
	for _, l := range jo.Lines {
		reserved, ready, shipped, balance := l.Reserved, l.Ready, l.Shipped, l.OrderBalance
		out = append(out, Line{
			No:           l.LineNo,
			Description:  l.Description,
			Unit:         l.Unit,
			Quantity:     l.ToProduce,
			Reserved:     &reserved,
			Ready:        &ready,
			Shipped:      &shipped,
			OrderBalance: &balance,
		})
	}
	return Projection{
		Kind:     KindJobOrder,
		ID:       jo.ID,
		Number:   jo.Number,
		Status:   string(jo.Status),
		Currency: s.format.Currency(),
		IssuedAt: jo.CreatedAt,
		Notes:    jo.Notes,
		Lines:    out,
	}
}
