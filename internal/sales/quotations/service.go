package quotations

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hairline-erp/hairline/internal/masterdata/customers"
	"github.com/hairline-erp/hairline/internal/numbering"
	"github.com/hairline-erp/hairline/internal/pricing"
	salesshared "github.com/hairline-erp/hairline/internal/sales/shared"
	core "github.com/hairline-erp/hairline/internal/shared"
)

// CustomerLookup returns customers that may receive new documents.
type CustomerLookup interface {
	Active(ctx context.Context, id int64) (customers.Customer, error)
}

// AuditPort abstracts audit logging functionality.
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

func (s *Service) Create(ctx context.Context, caller core.Caller, req CreateQuotationRequest) (Quotation, error) {
	if err := core.Validate(req); err != nil {
		return Quotation{}, err
	}
	customer, err := s.customers.Active(ctx, req.CustomerID)
	if err != nil {
		return Quotation{}, err
	}
	tierID := req.PriceTierID
	if tierID == nil {
		tierID = customer.PriceTierID
	}
	lines, err := s.prices.BuildLines(ctx, req.Lines, tierID)
	if err != nil {
		return Quotation{}, err
	}

	q := Quotation{
		CustomerID:    customer.ID,
		PriceTierID:   tierID,
		Status:        QuotationStatusDraft,
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		Notes:         req.Notes,
		CreatedBy:     caller.StaffID,
	}
	q.Lines, q.Totals = salesshared.Recalculate(lines, req.Fees)
	q.Fees = req.Fees.Normalize()
	if err := q.Totals.Validate(); err != nil {
		return Quotation{}, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		number, err := s.numbers.Next(ctx, repo, numbering.ClassQuotation, s.numbers.Now())
		if err != nil {
			return err
		}
		q.Number = number
		q, err = repo.Create(ctx, q)
		return err
	})
	if err != nil {
		return Quotation{}, err
	}
	s.record(ctx, caller, "quotation:create", q, nil)
	return q, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Quotation, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters salesshared.DocumentFilters) ([]Quotation, int, error) {
	return s.repo.List(ctx, filters)
}

// Update edits a draft quotation inside its edit window.
func (s *Service) Update(ctx context.Context, caller core.Caller, id int64, req UpdateQuotationRequest) (Quotation, error) {
	if err := core.Validate(req); err != nil {
		return Quotation{}, err
	}
	if req.Fees != nil {
		if err := req.Fees.Validate(); err != nil {
			return Quotation{}, err
		}
	}
	return s.mutate(ctx, caller, id, "quotation:update", func(ctx context.Context, q *Quotation) error {
		if err := s.ensureEditable(*q); err != nil {
			return err
		}
		customerID, tierID, reprice, err := s.party(ctx, q.CustomerID, q.PriceTierID, req.CustomerID, req.PriceTierID)
		if err != nil {
			return err
		}
		lines := q.Lines
		switch {
		case req.Lines != nil:
			lines, err = s.prices.BuildLines(ctx, req.Lines, tierID)
		case reprice:
			lines, err = s.prices.Reprice(ctx, q.Lines, tierID)
		}
		if err != nil {
			return err
		}
		q.CustomerID, q.PriceTierID = customerID, tierID
		if req.Fees != nil {
			q.Fees = req.Fees.Normalize()
		}
		if req.PaymentMethod != nil {
			q.PaymentMethod = strings.TrimSpace(*req.PaymentMethod)
		}
		if req.Notes != nil {
			q.Notes = *req.Notes
		}
		q.Lines, q.Totals = salesshared.Recalculate(lines, q.Fees)
		return q.Totals.Validate()
	})
}

// ChangePriceTier switches the tier and re-prices every line from the product base price.
func (s *Service) ChangePriceTier(ctx context.Context, caller core.Caller, id int64, tierID *int64) (Quotation, error) {
	return s.mutate(ctx, caller, id, "quotation:change_tier", func(ctx context.Context, q *Quotation) error {
		if err := s.ensureEditable(*q); err != nil {
			return err
		}
		lines, err := s.prices.Reprice(ctx, q.Lines, tierID)
		if err != nil {
			return err
		}
		q.PriceTierID = tierID
		q.Lines, q.Totals = salesshared.Recalculate(lines, q.Fees)
		return q.Totals.Validate()
	})
}

func (s *Service) Send(ctx context.Context, caller core.Caller, id int64) (Quotation, error) {
	return s.mutate(ctx, caller, id, "quotation:send", func(ctx context.Context, q *Quotation) error {
		if q.Status != QuotationStatusDraft {
			return core.InvalidState("Quotation %s is %s; only draft quotations can be sent.", q.Number, q.Status)
		}
		if len(q.Lines) == 0 {
			return core.Validation("Quotation %s has no lines.", q.Number)
		}
		q.Status = QuotationStatusSent
		return nil
	})
}

func (s *Service) Approve(ctx context.Context, caller core.Caller, id int64) (Quotation, error) {
	return s.mutate(ctx, caller, id, "quotation:approve", func(ctx context.Context, q *Quotation) error {
		if q.Status != QuotationStatusDraft && q.Status != QuotationStatusSent {
			return core.InvalidState("Quotation %s is %s and cannot be approved.", q.Number, q.Status)
		}
		q.Status = QuotationStatusApproved
		q.RejectionReason = nil
		return nil
	})
}

func (s *Service) Reject(ctx context.Context, caller core.Caller, id int64, reason string) (Quotation, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Quotation{}, core.ValidationFields(map[string]string{"reason": "is required"})
	}
	return s.mutate(ctx, caller, id, "quotation:reject", func(ctx context.Context, q *Quotation) error {
		if q.Status != QuotationStatusDraft && q.Status != QuotationStatusSent {
			return core.InvalidState("Quotation %s is %s and cannot be rejected.", q.Number, q.Status)
		}
		q.Status = QuotationStatusRejected
		q.RejectionReason = &reason
		return nil
	})
}

// Revise bumps the revision tag, returns the quotation to draft and reopens the edit window.
func (s *Service) Revise(ctx context.Context, caller core.Caller, id int64) (Quotation, error) {
	return s.mutate(ctx, caller, id, "quotation:revise", func(ctx context.Context, q *Quotation) error {
		if q.Status == QuotationStatusConverted {
			return core.InvalidState("Quotation %s was converted to a sales order and cannot be revised.", q.Number)
		}
		if q.Revision >= salesshared.MaxRevision {
			return core.InvalidState("Quotation %s is already at %s, the last allowed revision.", q.Number, q.RevisionTag())
		}
		q.Revision++
		q.Status = QuotationStatusDraft
		q.RejectionReason = nil
		q.RevisedAt = s.numbers.Now()
		return nil
	})
}

// Duplicate copies customer, tier, lines and fees into a fresh R0 draft with a new number.
func (s *Service) Duplicate(ctx context.Context, caller core.Caller, id int64) (Quotation, error) {
	var dup Quotation
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		src, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		number, err := s.numbers.Next(ctx, repo, numbering.ClassQuotation, s.numbers.Now())
		if err != nil {
			return err
		}
		dup = Quotation{
			Number:        number,
			CustomerID:    src.CustomerID,
			PriceTierID:   src.PriceTierID,
			Status:        QuotationStatusDraft,
			Fees:          src.Fees,
			PaymentMethod: src.PaymentMethod,
			Notes:         src.Notes,
			CreatedBy:     caller.StaffID,
		}
		dup.Lines, dup.Totals = salesshared.Recalculate(salesshared.CopyLines(src.Lines), src.Fees)
		dup, err = repo.Create(ctx, dup)
		return err
	})
	if err != nil {
		return Quotation{}, err
	}
	s.record(ctx, caller, "quotation:duplicate", dup, map[string]any{"source_id": id})
	return dup, nil
}

// Delete removes a quotation that never became a sales order.
func (s *Service) Delete(ctx context.Context, caller core.Caller, id int64) error {
	var deleted Quotation
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		q, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if q.Status == QuotationStatusConverted || q.SalesOrderID != nil {
			return core.InvalidState("Quotation %s was converted to a sales order and cannot be deleted.", q.Number)
		}
		deleted = q
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.record(ctx, caller, "quotation:delete", deleted, nil)
	return nil
}

func (s *Service) mutate(ctx context.Context, caller core.Caller, id int64, action string, fn func(context.Context, *Quotation) error) (Quotation, error) {
	var q Quotation
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		q, err = repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, &q); err != nil {
			return err
		}
		return repo.Update(ctx, q)
	})
	if err != nil {
		return Quotation{}, err
	}
	s.record(ctx, caller, action, q, nil)
	return s.repo.Get(ctx, id)
}

// party resolves the customer and tier of an edited draft. A new customer must be
// active and brings its own tier unless one is given; reprice reports a tier switch.
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

func (s *Service) ensureEditable(q Quotation) error {
	if !q.editableStatus() {
		return core.InvalidState("Quotation %s is %s; only draft quotations can be edited.", q.Number, q.Status)
	}
	closes := q.EditWindowCloses(s.numbers.Location())
	if !s.numbers.Now().Before(closes) {
		day := closes.AddDate(0, 0, -1).Format("2 Jan 2006")
		return core.Locked("Quotation %s (%s) could only be edited on %s. Revise it to make changes.", q.Number, q.RevisionTag(), day)
	}
	return nil
}

func (s *Service) record(ctx context.Context, caller core.Caller, action string, q Quotation, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if meta == nil {
		meta = map[string]any{}
	}
	meta["number"] = q.Number
	meta["status"] = q.Status
	meta["revision"] = q.RevisionTag()
	meta["total"] = q.Total.StringFixed(2)
	if err := s.audit.Record(ctx, core.AuditLog{ActorID: caller.StaffID, Action: action, Entity: "quotation", EntityID: fmt.Sprint(q.ID), Meta: meta}); err != nil {
		s.logger.Warn("audit quotation", slog.String("action", action), slog.Any("error", err))
	}
}
