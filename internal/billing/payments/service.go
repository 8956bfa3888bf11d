package payments

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hairline-erp/hairline/internal/billing/invoices"
	"github.com/hairline-erp/hairline/internal/numbering"
	core "github.com/hairline-erp/hairline/internal/shared"
)

// Notifier enqueues the customer notification for a decided payment.
type Notifier interface {
	NotifyPayment(ctx context.Context, n Notification) error
}

type Recorder interface {
	PaymentDecided(decision string)
}

type AuditPort interface {
	Record(ctx context.Context, log core.AuditLog) error
}

type ServiceConfig struct {
	Notifier Notifier
	Metrics  Recorder
	Audit    AuditPort
	Logger   *slog.Logger
}

type Service struct {
	repo     Repository
	numbers  *numbering.Service
	notifier Notifier
	metrics  Recorder
	audit    AuditPort
	logger   *slog.Logger
}

func NewService(repo Repository, numbers *numbering.Service, cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		numbers:  numbers,
		notifier: cfg.Notifier,
		metrics:  cfg.Metrics,
		audit:    cfg.Audit,
		logger:   logger,
	}
}

// Submit records a payment proof against an invoice for later verification.
func (s *Service) Submit(ctx context.Context, caller core.Caller, input SubmitInput) (Payment, error) {
	input.Method = strings.TrimSpace(input.Method)
	if err := core.Validate(input); err != nil {
		return Payment{}, err
	}
	amount := core.Round2(input.Amount)
	if !amount.IsPositive() {
		return Payment{}, core.ValidationFields(map[string]string{"amount": "must be at least 0.01"})
	}

	var payment Payment
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		inv, err := repo.Invoices().Get(ctx, input.InvoiceID)
		if err != nil {
			return err
		}
		if inv.PaymentStatus == invoices.PaymentStatusPaid {
			return core.InvalidState("Invoice %s is already fully paid.", inv.Number)
		}
		number, err := s.numbers.Next(ctx, repo, numbering.ClassPayment, s.numbers.Now())
		if err != nil {
			return err
		}
		payment, err = repo.Create(ctx, Payment{
			Number:      number,
			InvoiceID:   inv.ID,
			Amount:      amount,
			Method:      input.Method,
			ProofImages: input.ProofImages,
			Metadata:    input.Metadata,
			Status:      StatusSubmitted,
			SubmittedBy: caller.StaffID,
			Notes:       input.Notes,
		})
		return err
	})
	if err != nil {
		return Payment{}, err
	}
	s.record(ctx, caller, "payment:submit", payment, nil)
	return payment, nil
}

// Verify approves or rejects a submitted payment. Approval updates the invoice's paid
// amount and payment status in the same transaction, under the invoice row lock.
func (s *Service) Verify(ctx context.Context, caller core.Caller, id int64, input VerifyInput) (Payment, error) {
	input.Reason = strings.TrimSpace(input.Reason)
	if err := core.Validate(input); err != nil {
		return Payment{}, err
	}
	if input.Decision == DecisionReject && input.Reason == "" {
		return Payment{}, core.ValidationFields(map[string]string{"reason": "is required when rejecting a payment"})
	}

	var (
		payment Payment
		invoice invoices.Invoice
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		payment, err = repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if payment.Status != StatusSubmitted {
			return core.InvalidState("Payment %s is already %s.", payment.Number, payment.Status)
		}
		invoice, err = repo.Invoices().GetForUpdate(ctx, payment.InvoiceID)
		if err != nil {
			return err
		}

		now := s.numbers.Now()
		verifier := caller.StaffID
		payment.VerifiedBy = &verifier
		payment.VerifiedAt = &now
		if input.Notes != "" {
			payment.Notes = input.Notes
		}

		if input.Decision == DecisionReject {
			payment.Status = StatusRejected
			payment.RejectionReason = &input.Reason
			return repo.SaveDecision(ctx, payment)
		}

		if err := invoice.ApplyPayment(payment.Amount); err != nil {
			return err
		}
		payment.Status = StatusVerified
		if err := repo.SaveDecision(ctx, payment); err != nil {
			return err
		}
		return repo.Invoices().UpdatePayment(ctx, invoice.ID, invoice.PaidAmount, invoice.PaymentStatus)
	})
	if err != nil {
		return Payment{}, err
	}

	if s.metrics != nil {
		s.metrics.PaymentDecided(string(input.Decision))
	}
	s.record(ctx, caller, "payment:"+string(input.Decision), payment, map[string]any{"invoice_status": invoice.PaymentStatus})
	s.notify(ctx, payment, invoice, input)
	return payment, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Payment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Payment, int, error) {
	return s.repo.List(ctx, filters)
}

// ListByInvoice returns every payment of an invoice, newest first.
func (s *Service) ListByInvoice(ctx context.Context, invoiceID int64) ([]Payment, error) {
	if _, err := s.repo.Invoices().Get(ctx, invoiceID); err != nil {
		return nil, err
	}
	out, _, err := s.repo.List(ctx, ListFilters{InvoiceID: invoiceID, Limit: core.MaxPerPage})
	return out, err
}

// notify runs after commit; a failed enqueue is logged, the decision stands.
func (s *Service) notify(ctx context.Context, p Payment, inv invoices.Invoice, input VerifyInput) {
	if s.notifier == nil {
		return
	}
	n := Notification{
		PaymentID:     p.ID,
		PaymentNumber: p.Number,
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.Number,
		CustomerID:    inv.CustomerID,
		Decision:      string(input.Decision),
		Amount:        p.Amount.StringFixed(2),
		InvoiceStatus: string(inv.PaymentStatus),
		Reason:        input.Reason,
	}
	if err := s.notifier.NotifyPayment(ctx, n); err != nil {
		s.logger.Warn("enqueue payment notification", slog.String("payment", p.Number), slog.Any("error", err))
	}
}

func (s *Service) record(ctx context.Context, caller core.Caller, action string, p Payment, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if meta == nil {
		meta = map[string]any{}
	}
	meta["number"] = p.Number
	meta["amount"] = p.Amount.StringFixed(2)
	meta["invoice_id"] = p.InvoiceID
	if err := s.audit.Record(ctx, core.AuditLog{ActorID: caller.StaffID, Action: action, Entity: "payment", EntityID: fmt.Sprint(p.ID), Meta: meta}); err != nil {
		s.logger.Warn("audit payment", slog.String("action", action), slog.Any("error", err))
	}
}
