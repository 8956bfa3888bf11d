// Package workflow drives documents across their lifecycle: quotation to sales order,
// sales order confirmation into a job order, an invoice and stock reservations, and
// invoice generation for confirmed orders.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hairline-erp/hairline/internal/billing/invoices"
	"github.com/hairline-erp/hairline/internal/inventory"
	"github.com/hairline-erp/hairline/internal/masterdata/warehouses"
	"github.com/hairline-erp/hairline/internal/numbering"
	"github.com/hairline-erp/hairline/internal/production/joborders"
	"github.com/hairline-erp/hairline/internal/sales/orders"
	"github.com/hairline-erp/hairline/internal/sales/quotations"
	salesshared "github.com/hairline-erp/hairline/internal/sales/shared"
	core "github.com/hairline-erp/hairline/internal/shared"
)

// Ledger posts stock movements inside a workflow transaction.
type Ledger interface {
	PostTx(ctx context.Context, tx inventory.TxRepository, input inventory.MovementInput) (inventory.Movement, error)
	Invalidate(ctx context.Context)
}

// BucketLookup resolves the reserved stock location.
type BucketLookup interface {
	ReservedBucket(ctx context.Context) (warehouses.Warehouse, error)
}

type Recorder interface {
	WorkflowRun(operation string, err error) error
	DocumentIssued(class string)
}

type Config struct {
	Store   Store
	Numbers *numbering.Service
	Ledger  Ledger
	Buckets BucketLookup
	Metrics Recorder
	Logger  *slog.Logger
}

type Service struct {
	store   Store
	numbers *numbering.Service
	ledger  Ledger
	buckets BucketLookup
	metrics Recorder
	logger  *slog.Logger
}

func NewService(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   cfg.Store,
		numbers: cfg.Numbers,
		ledger:  cfg.Ledger,
		buckets: cfg.Buckets,
		metrics: cfg.Metrics,
		logger:  logger,
	}
}

// Conversion identifies the sales order created from a quotation.
type Conversion struct {
	SalesOrderID int64  `json:"sales_order_id"`
	Number       string `json:"number"`
	QuotationID  int64  `json:"quotation_id"`
}

// Confirmation holds everything a confirm produced.
type Confirmation struct {
	Order        orders.SalesOrder    `json:"sales_order"`
	JobOrder     joborders.JobOrder   `json:"job_order"`
	Invoice      invoices.Invoice     `json:"invoice"`
	Reservations []inventory.Movement `json:"reservations"`
}

// BatchResult summarises GenerateMissingInvoices.
type BatchResult struct {
	Generated []string `json:"generated"`
	Skipped   []string `json:"skipped"`
	Failed    []string `json:"failed,omitempty"`
}

const batchLimit = 500

// CreateSalesOrderFromQuotation copies a draft, sent or approved quotation into a new
// draft sales order and marks the quotation converted, in one transaction.
func (s *Service) CreateSalesOrderFromQuotation(ctx context.Context, caller core.Caller, quotationID int64, dueDate *time.Time) (Conversion, error) {
	ctx = core.ContextWithCaller(ctx, caller)
	var result Conversion
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		q, err := tx.Quotations().GetForUpdate(ctx, quotationID)
		if err != nil {
			return err
		}
		switch q.Status {
		case quotations.QuotationStatusDraft, quotations.QuotationStatusSent, quotations.QuotationStatusApproved:
		case quotations.QuotationStatusConverted:
			return core.InvalidState("Quotation %s has already been converted to a sales order.", q.Number)
		default:
			return core.InvalidState("Quotation %s is %s and cannot become a sales order.", q.Number, q.Status)
		}

		number, err := s.numbers.Next(ctx, tx.Orders(), numbering.ClassSalesOrder, s.numbers.Now())
		if err != nil {
			return err
		}
		order := orders.SalesOrder{
			Number:        number,
			QuotationID:   &q.ID,
			CustomerID:    q.CustomerID,
			PriceTierID:   q.PriceTierID,
			Revision:      q.Revision,
			Status:        orders.SalesOrderStatusDraft,
			Fees:          q.Fees,
			PaymentMethod: q.PaymentMethod,
			Notes:         q.Notes,
			DueDate:       dueDate,
			CreatedBy:     caller.StaffID,
		}
		order.Lines, order.Totals = salesshared.Recalculate(salesshared.CopyLines(q.Lines), q.Fees)
		order, err = tx.Orders().Create(ctx, order)
		if err != nil {
			return err
		}

		q.Status = quotations.QuotationStatusConverted
		q.SalesOrderID = &order.ID
		if err := tx.Quotations().Update(ctx, q); err != nil {
			return err
		}

		result = Conversion{SalesOrderID: order.ID, Number: order.Number, QuotationID: q.ID}
		return tx.Audit(ctx, core.AuditLog{
			ActorID:  caller.StaffID,
			Action:   "quotation:convert",
			Entity:   "sales_order",
			EntityID: fmt.Sprint(order.ID),
			Meta:     map[string]any{"number": order.Number, "quotation": q.Number, "revision": q.RevisionTag()},
		})
	})
	if err == nil {
		s.issued("sales_order")
		s.logger.Info("quotation converted", slog.Int64("quotation_id", quotationID), slog.String("sales_order", result.Number))
	}
	return result, s.observe("create_sales_order_from_quotation", err)
}

// ConfirmSalesOrder locks the order and, atomically, confirms it, creates its job order and
// invoice under the same number and reserves every line into the reserved bucket.
func (s *Service) ConfirmSalesOrder(ctx context.Context, caller core.Caller, salesOrderID int64) (Confirmation, error) {
	ctx = core.ContextWithCaller(ctx, caller)
	bucket, err := s.buckets.ReservedBucket(ctx)
	if err != nil {
		return Confirmation{}, s.observe("confirm_sales_order", err)
	}

	var result Confirmation
	err = s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		order, err := tx.Orders().GetForUpdate(ctx, salesOrderID)
		if err != nil {
			return err
		}
		if order.IsConfirmed {
			return core.AlreadyConfirmed(order.Number)
		}
		if order.Status != orders.SalesOrderStatusDraft {
			return core.InvalidState("Sales order %s is %s and cannot be confirmed.", order.Number, order.Status)
		}
		if len(order.Lines) == 0 {
			return core.Validation("Sales order %s has no lines to confirm.", order.Number)
		}

		now := s.numbers.Now()
		if err := tx.Orders().MarkConfirmed(ctx, order.ID, caller.StaffID, now); err != nil {
			return err
		}
		staffID := caller.StaffID
		order.Status = orders.SalesOrderStatusConfirmed
		order.IsConfirmed = true
		order.ConfirmedBy = &staffID
		order.ConfirmedAt = &now

		job, err := tx.JobOrders().Create(ctx, joborders.JobOrder{
			Number:       order.Number,
			SalesOrderID: &order.ID,
			CustomerID:   order.CustomerID,
			Status:       joborders.StatusPending,
			Notes:        order.Notes,
			CreatedBy:    caller.StaffID,
			Lines:        joborders.LinesFromOrder(order.Lines),
		})
		if err != nil {
			return alreadyConfirmed(err, order.Number)
		}

		inv, err := tx.Invoices().Create(ctx, invoices.FromOrder(order, caller.StaffID))
		if err != nil {
			return alreadyConfirmed(err, order.Number)
		}

		reference := fmt.Sprintf("sales_order:%d", order.ID)
		reservations := make([]inventory.Movement, 0, len(order.Lines))
		for _, line := range order.Lines {
			m, err := s.ledger.PostTx(ctx, tx.Stock(), inventory.MovementInput{
				WarehouseID: bucket.ID,
				ProductID:   line.ProductID,
				Quantity:    line.Quantity,
				Type:        inventory.MovementReservation,
				ReferenceID: reference,
				Reason:      "reserved for sales order " + order.Number,
			})
			if err != nil {
				return err
			}
			reservations = append(reservations, m)
		}

		result = Confirmation{Order: order, JobOrder: job, Invoice: inv, Reservations: reservations}
		return tx.Audit(ctx, core.AuditLog{
			ActorID:  caller.StaffID,
			Action:   "sales_order:confirm",
			Entity:   "sales_order",
			EntityID: fmt.Sprint(order.ID),
			Meta: map[string]any{
				"number":       order.Number,
				"job_order_id": job.ID,
				"invoice_id":   inv.ID,
				"reserved":     len(reservations),
			},
		})
	})
	if err == nil {
		s.ledger.Invalidate(ctx)
		s.issued("job_order")
		s.issued("invoice")
		s.logger.Info("sales order confirmed", slog.String("number", result.Order.Number), slog.Int64("staff_id", caller.StaffID))
	}
	return result, s.observe("confirm_sales_order", err)
}

// GenerateInvoice issues the invoice of a confirmed order that does not have one yet.
func (s *Service) GenerateInvoice(ctx context.Context, caller core.Caller, salesOrderID int64) (invoices.Invoice, error) {
	ctx = core.ContextWithCaller(ctx, caller)
	var inv invoices.Invoice
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		order, err := tx.Orders().GetForUpdate(ctx, salesOrderID)
		if err != nil {
			return err
		}
		if !order.IsConfirmed {
			return core.InvalidState("Sales order %s must be confirmed before it can be invoiced.", order.Number)
		}
		_, err = tx.Invoices().GetBySalesOrder(ctx, order.ID)
		switch {
		case err == nil:
			return core.DuplicateInvoice(order.Number)
		case !errors.Is(err, core.ErrNotFound):
			return err
		}
		inv, err = tx.Invoices().Create(ctx, invoices.FromOrder(order, caller.StaffID))
		if err != nil {
			return err
		}
		return tx.Audit(ctx, core.AuditLog{
			ActorID:  caller.StaffID,
			Action:   "invoice:generate",
			Entity:   "invoice",
			EntityID: fmt.Sprint(inv.ID),
			Meta:     map[string]any{"number": inv.Number, "total": inv.Total.StringFixed(2)},
		})
	})
	if err == nil {
		s.issued("invoice")
	}
	return inv, s.observe("generate_invoice", err)
}

// GenerateMissingInvoices catches up confirmed orders that have no invoice. Orders invoiced
// concurrently are skipped; other failures are collected and do not stop the batch.
func (s *Service) GenerateMissingInvoices(ctx context.Context, caller core.Caller) (BatchResult, error) {
	var pending []orders.SalesOrder
	err := s.store.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		pending, err = tx.Orders().ListConfirmedWithoutInvoice(ctx, batchLimit)
		return err
	})
	if err != nil {
		return BatchResult{}, s.observe("generate_missing_invoices", err)
	}

	result := BatchResult{Generated: []string{}, Skipped: []string{}}
	var errs []error
	for _, order := range pending {
		inv, err := s.GenerateInvoice(ctx, caller, order.ID)
		switch {
		case err == nil:
			result.Generated = append(result.Generated, inv.Number)
		case errors.Is(err, core.ErrDuplicateInvoice):
			result.Skipped = append(result.Skipped, order.Number)
		default:
			result.Failed = append(result.Failed, order.Number)
			errs = append(errs, fmt.Errorf("sales order %s: %w", order.Number, err))
		}
	}
	s.logger.Info("missing invoices generated",
		slog.Int("generated", len(result.Generated)),
		slog.Int("skipped", len(result.Skipped)),
		slog.Int("failed", len(result.Failed)))
	return result, s.observe("generate_missing_invoices", errors.Join(errs...))
}

// alreadyConfirmed folds a duplicate child document into AlreadyConfirmed: a concurrent
// confirm won the race.
func alreadyConfirmed(err error, number string) error {
	if errors.Is(err, core.ErrDuplicateInvoice) || errors.Is(err, core.ErrAlreadyConfirmed) {
		return core.AlreadyConfirmed(number)
	}
	return err
}

func (s *Service) observe(operation string, err error) error {
	if s.metrics == nil {
		return err
	}
	return s.metrics.WorkflowRun(operation, err)
}

func (s *Service) issued(class string) {
	if s.metrics != nil {
		s.metrics.DocumentIssued(class)
	}
}
