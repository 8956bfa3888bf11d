package orders

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hairline-erp/hairline/internal/masterdata/customers"
	"github.com/hairline-erp/hairline/internal/numbering"
	"github.com/hairline-erp/hairline/internal/pricing"
	salesshared "github.com/hairline-erp/hairline/internal/sales/shared"
	core "github.com/hairline-erp/hairline/internal/shared"
)

const dateLayout = "2006-01-02"

type CustomerLookup interface {
	Active(ctx context.Context, id int64) (customers.Customer, error)
}

type AuditPort interface {
	Record(ctx context.Context, log core.AuditLog) error
}

type Service struct {
	repo      Repository
	customers CustomerLookup
	prices    *pricing.Resolver
	numbers   *numbering.Service
	audit     AuditPort
	logger    *slog.Logger
}

func NewService(repo Repository, customers CustomerLookup, prices *pricing.Resolver, numbers *numbering.Service, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, customers: customers, prices: prices, numbers: numbers, audit: audit, logger: logger}
}

// Create opens a draft sales order directly, without a quotation.
func (s *Service) Create(ctx context.Context, caller core.Caller, req CreateSalesOrderRequest) (SalesOrder, error) {
	if err := core.Validate(req); err != nil {
		return SalesOrder{}, err
	}
	customer, err := s.customers.Active(ctx, req.CustomerID)
	if err != nil {
		return SalesOrder{}, err
	}
	tierID := req.PriceTierID
	if tierID == nil {
		tierID = customer.PriceTierID
	}
	lines, err := s.prices.BuildLines(ctx, req.Lines, tierID)
	if err != nil {
		return SalesOrder{}, err
	}
	due, err := parseDate(req.DueDate)
	if err != nil {
		return SalesOrder{}, err
	}

	order := SalesOrder{
		CustomerID:    customer.ID,
		PriceTierID:   tierID,
		Status:        SalesOrderStatusDraft,
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		Notes:         req.Notes,
		DueDate:       due,
		CreatedBy:     caller.StaffID,
	}
	order.Fees = req.Fees.Normalize()
	order.Lines, order.Totals = salesshared.Recalculate(lines, order.Fees)
	if err := order.Totals.Validate(); err != nil {
		return SalesOrder{}, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		number, err := s.numbers.Next(ctx, repo, numbering.ClassSalesOrder, s.numbers.Now())
		if err != nil {
			return err
		}
		order.Number = number
		order, err = repo.Create(ctx, order)
		return err
	})
	if err != nil {
		return SalesOrder{}, err
	}
	s.record(ctx, caller, "sales_order:create", order)
	return order, nil
}

func (s *Service) Get(ctx context.Context, id int64) (SalesOrder, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters salesshared.DocumentFilters) ([]SalesOrder, int, error) {
	return s.repo.List(ctx, filters)
}

// Update edits a draft order. Confirmed orders fail with DocumentLocked and stay unchanged.
func (s *Service) Update(ctx context.Context, caller core.Caller, id int64, req UpdateSalesOrderRequest) (SalesOrder, error) {
	if err := core.Validate(req); err != nil {
		return SalesOrder{}, err
	}
	if req.Fees != nil {
		if err := req.Fees.Validate(); err != nil {
			return SalesOrder{}, err
		}
	}
	return s.mutate(ctx, caller, id, "sales_order:update", func(ctx context.Context, o *SalesOrder) error {
		customerID, tierID, reprice, err := s.party(ctx, o.CustomerID, o.PriceTierID, req.CustomerID, req.PriceTierID)
		if err != nil {
			return err
		}
		lines := o.Lines
		switch {
		case req.Lines != nil:
			lines, err = s.prices.BuildLines(ctx, req.Lines, tierID)
		case reprice:
			lines, err = s.prices.Reprice(ctx, o.Lines, tierID)
		}
		if err != nil {
			return err
		}
		o.CustomerID, o.PriceTierID = customerID, tierID
		if req.Fees != nil {
			o.Fees = req.Fees.Normalize()
		}
		if req.PaymentMethod != nil {
			o.PaymentMethod = strings.TrimSpace(*req.PaymentMethod)
		}
		if req.Notes != nil {
			o.Notes = *req.Notes
		}
		if req.DueDate != nil {
			due, err := parseDate(*req.DueDate)
			if err != nil {
				return err
			}
			o.DueDate = due
		}
		o.Lines, o.Totals = salesshared.Recalculate(lines, o.Fees)
		return o.Totals.Validate()
	})
}

// ChangePriceTier re-prices every line of a draft order from the product base price.
func (s *Service) ChangePriceTier(ctx context.Context, caller core.Caller, id int64, tierID *int64) (SalesOrder, error) {
	return s.mutate(ctx, caller, id, "sales_order:change_tier", func(ctx context.Context, o *SalesOrder) error {
		lines, err := s.prices.Reprice(ctx, o.Lines, tierID)
		if err != nil {
			return err
		}
		o.PriceTierID = tierID
		o.Lines, o.Totals = salesshared.Recalculate(lines, o.Fees)
		return o.Totals.Validate()
	})
}

func (s *Service) Delete(ctx context.Context, caller core.Caller, id int64) error {
	var deleted SalesOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		o, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if o.Locked() {
			return core.Locked("Sales order %s is confirmed and cannot be deleted.", o.Number)
		}
		deleted = o
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.record(ctx, caller, "sales_order:delete", deleted)
	return nil
}

// party resolves customer and tier for an edited draft order. Switching customer
// checks it is active and adopts its tier unless a tier is also given.
func (s *Service) party(ctx context.Context, customerID int64, tierID, newCustomer, newTier *int64) (int64, *int64, bool, error) {
	reprice := false
	if newCustomer != nil && *newCustomer != customerID {
		customer, err := s.customers.Active(ctx, *newCustomer)
		if err != nil {
			return 0, nil, false, err
		}
		customerID, tierID, reprice = customer.ID, customer.PriceTierID, true
	}
	if newTier != nil {
		tierID, reprice = newTier, true
	}
	return customerID, tierID, reprice, nil
}

func (s *Service) mutate(ctx context.Context, caller core.Caller, id int64, action string, fn func(context.Context, *SalesOrder) error) (SalesOrder, error) {
	var order SalesOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		order, err = repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Locked() {
			return core.Locked("Sales order %s is confirmed and can no longer be changed.", order.Number)
		}
		if err := fn(ctx, &order); err != nil {
			return err
		}
		return repo.Update(ctx, order)
	})
	if err != nil {
		return SalesOrder{}, err
	}
	s.record(ctx, caller, action, order)
	return s.repo.Get(ctx, id)
}

func (s *Service) record(ctx context.Context, caller core.Caller, action string, o SalesOrder) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, core.AuditLog{
		ActorID:  caller.StaffID,
		Action:   action,
		Entity:   "sales_order",
		EntityID: fmt.Sprint(o.ID),
		Meta:     map[string]any{"number": o.Number, "total": o.Total.StringFixed(2)},
	})
	if err != nil {
		s.logger.Warn("audit sales order", slog.String("action", action), slog.Any("error", err))
	}
}

func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, core.ValidationFields(map[string]string{"due_date": "must be a date like 2025-08-31"})
	}
	return &t, nil
}
