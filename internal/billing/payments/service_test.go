package payments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairline-erp/hairline/internal/billing/invoices"
	"github.com/hairline-erp/hairline/internal/numbering"
	salesshared "github.com/hairline-erp/hairline/internal/sales/shared"
	core "github.com/hairline-erp/hairline/internal/shared"
)

type store struct {
	txMu     sync.Mutex
	mu       sync.Mutex
	nextID   int64
	payments map[int64]Payment
	invoices map[int64]invoices.Invoice
	seq      map[string]int64
}

func newStore() *store {
	return &store{payments: map[int64]Payment{}, invoices: map[int64]invoices.Invoice{}, seq: map[string]int64{}}
}

type memoryRepo struct{ s *store }

// WithTx serialises transactions and restores both tables when fn fails.
func (m memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	m.s.txMu.Lock()
	defer m.s.txMu.Unlock()
	m.s.mu.Lock()
	payments := make(map[int64]Payment, len(m.s.payments))
	for k, v := range m.s.payments {
		payments[k] = v
	}
	invs := make(map[int64]invoices.Invoice, len(m.s.invoices))
	for k, v := range m.s.invoices {
		invs[k] = v
	}
	m.s.mu.Unlock()
	if err := fn(ctx, m); err != nil {
		m.s.mu.Lock()
		m.s.payments, m.s.invoices = payments, invs
		m.s.mu.Unlock()
		return err
	}
	return nil
}

func (m memoryRepo) Invoices() invoices.Repository { return memoryInvoices{s: m.s} }

func (m memoryRepo) Increment(ctx context.Context, class numbering.Class, year, month int) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	key := fmt.Sprintf("%s:%d:%d", class, year, month)
	m.s.seq[key]++
	return m.s.seq[key], nil
}

func (m memoryRepo) Get(ctx context.Context, id int64) (Payment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.payments[id]
	if !ok {
		return Payment{}, core.NotFound("Payment", id)
	}
	return p, nil
}

func (m memoryRepo) GetForUpdate(ctx context.Context, id int64) (Payment, error) {
	return m.Get(ctx, id)
}

func (m memoryRepo) List(ctx context.Context, filters ListFilters) ([]Payment, int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []Payment
	for _, p := range m.s.payments {
		if filters.InvoiceID > 0 && p.InvoiceID != filters.InvoiceID {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m memoryRepo) Create(ctx context.Context, p Payment) (Payment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.nextID++
	p.ID = m.s.nextID
	p.SubmittedAt = time.Now()
	m.s.payments[p.ID] = p
	return p, nil
}

func (m memoryRepo) SaveDecision(ctx context.Context, p Payment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.payments[p.ID].Status != StatusSubmitted {
		return core.InvalidState("Payment %s has already been verified.", p.Number)
	}
	m.s.payments[p.ID] = p
	return nil
}

type memoryInvoices struct {
	invoices.Repository
	s *store
}

func (m memoryInvoices) Get(ctx context.Context, id int64) (invoices.Invoice, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	inv, ok := m.s.invoices[id]
	if !ok {
		return invoices.Invoice{}, core.NotFound("Invoice", id)
	}
	return inv, nil
}

func (m memoryInvoices) GetForUpdate(ctx context.Context, id int64) (invoices.Invoice, error) {
	return m.Get(ctx, id)
}

func (m memoryInvoices) UpdatePayment(ctx context.Context, id int64, paid decimal.Decimal, status invoices.PaymentStatus) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	inv := m.s.invoices[id]
	inv.PaidAmount = paid
	inv.PaymentStatus = status
	m.s.invoices[id] = inv
	return nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []Notification
	err  error
}

func (n *recordingNotifier) NotifyPayment(ctx context.Context, note Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, note)
	return n.err
}

type countingMetrics struct {
	mu        sync.Mutex
	decisions map[string]int
}

func (c *countingMetrics) PaymentDecided(decision string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decisions[decision]++
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var (
	salesCaller   = core.Caller{StaffID: 3, Role: core.RoleSales}
	financeCaller = core.Caller{StaffID: 5, Role: core.RoleFinance}
)

type fixture struct {
	svc      *Service
	store    *store
	notifier *recordingNotifier
	metrics  *countingMetrics
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	s := newStore()
	s.invoices[1] = invoices.Invoice{
		ID:            1,
		Number:        "2025.08.001",
		CustomerID:    11,
		Totals:        salesshared.Totals{Subtotal: d("100.00"), Total: d("115.00")},
		PaidAmount:    decimal.Zero,
		PaymentStatus: invoices.PaymentStatusPending,
	}
	now := func() time.Time { return time.Date(2025, 8, 10, 8, 0, 0, 0, time.UTC) }
	notifier := &recordingNotifier{}
	metrics := &countingMetrics{decisions: map[string]int{}}
	svc := NewService(memoryRepo{s: s}, numbering.NewService(time.UTC).WithClock(now), ServiceConfig{
		Notifier: notifier,
		Metrics:  metrics,
	})
	return fixture{svc: svc, store: s, notifier: notifier, metrics: metrics}
}

func submit(t *testing.T, f fixture, amount string) Payment {
	t.Helper()
	p, err := f.svc.Submit(context.Background(), salesCaller, SubmitInput{
		InvoiceID:   1,
		Amount:      d(amount),
		Method:      "bank transfer",
		ProofImages: []string{"proofs/2025/08/receipt-1.jpg"},
		Metadata:    map[string]string{"bank": "BCA"},
	})
	require.NoError(t, err)
	return p
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, salesCaller, SubmitInput{InvoiceID: 1, Amount: d("10"), Method: "cash"})
	require.ErrorIs(t, err, core.ErrValidation)
	require.Contains(t, core.FieldErrors(err), "proof_images")

	_, err = f.svc.Submit(ctx, salesCaller, SubmitInput{InvoiceID: 1, Amount: d("0"), Method: "cash", ProofImages: []string{"a.jpg"}})
	require.ErrorIs(t, err, core.ErrValidation)

	_, err = f.svc.Submit(ctx, salesCaller, SubmitInput{InvoiceID: 1, Amount: d("10"), Method: "  ", ProofImages: []string{"a.jpg"}})
	require.ErrorIs(t, err, core.ErrValidation)

	_, err = f.svc.Submit(ctx, salesCaller, SubmitInput{InvoiceID: 42, Amount: d("10"), Method: "cash", ProofImages: []string{"a.jpg"}})
	require.ErrorIs(t, err, core.ErrNotFound)
	require.Empty(t, f.store.payments)
}

func TestSubmitNumbersPayments(t *testing.T) {
	f := newFixture(t)
	first := submit(t, f, "15")
	second := submit(t, f, "20")
	require.Equal(t, "2025.08.001", first.Number)
	require.Equal(t, "2025.08.002", second.Number)
	require.Equal(t, StatusSubmitted, first.Status)
	require.EqualValues(t, 3, first.SubmittedBy)
	require.Equal(t, "BCA", first.Metadata["bank"])
}

func TestApproveUpdatesInvoiceAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := submit(t, f, "15")

	verified, err := f.svc.Verify(ctx, financeCaller, p.ID, VerifyInput{Decision: DecisionApprove, Notes: "matched statement"})
	require.NoError(t, err)
	require.Equal(t, StatusVerified, verified.Status)
	require.EqualValues(t, 5, *verified.VerifiedBy)
	require.NotNil(t, verified.VerifiedAt)
	require.Equal(t, "matched statement", verified.Notes)

	inv := f.store.invoices[1]
	require.True(t, inv.PaidAmount.Equal(d("15")))
	require.Equal(t, invoices.PaymentStatusPartial, inv.PaymentStatus)

	require.Len(t, f.notifier.sent, 1)
	require.Equal(t, "approve", f.notifier.sent[0].Decision)
	require.Equal(t, "partial", f.notifier.sent[0].InvoiceStatus)
	require.EqualValues(t, 11, f.notifier.sent[0].CustomerID)
	require.Equal(t, 1, f.metrics.decisions["approve"])

	rest := submit(t, f, "100")
	_, err = f.svc.Verify(ctx, financeCaller, rest.ID, VerifyInput{Decision: DecisionApprove})
	require.NoError(t, err)
	require.Equal(t, invoices.PaymentStatusPaid, f.store.invoices[1].PaymentStatus)

	_, err = f.svc.Verify(ctx, financeCaller, rest.ID, VerifyInput{Decision: DecisionApprove})
	require.ErrorIs(t, err, core.ErrInvalidState)
}

func TestApproveBeyondBalanceChangesNothing(t *testing.T) {
	f := newFixture(t)
	p := submit(t, f, "115.01")

	_, err := f.svc.Verify(context.Background(), financeCaller, p.ID, VerifyInput{Decision: DecisionApprove})
	require.ErrorIs(t, err, core.ErrValidation)
	require.Equal(t, StatusSubmitted, f.store.payments[p.ID].Status)
	require.True(t, f.store.invoices[1].PaidAmount.IsZero())
	require.Empty(t, f.notifier.sent)
}

func TestRejectRequiresReason(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := submit(t, f, "15")

	_, err := f.svc.Verify(ctx, financeCaller, p.ID, VerifyInput{Decision: DecisionReject})
	require.ErrorIs(t, err, core.ErrValidation)

	_, err = f.svc.Verify(ctx, financeCaller, p.ID, VerifyInput{Decision: "maybe"})
	require.ErrorIs(t, err, core.ErrValidation)

	rejected, err := f.svc.Verify(ctx, financeCaller, p.ID, VerifyInput{Decision: DecisionReject, Reason: "blurry receipt"})
	require.NoError(t, err)
	require.Equal(t, StatusRejected, rejected.Status)
	require.Equal(t, "blurry receipt", *rejected.RejectionReason)
	require.True(t, f.store.invoices[1].PaidAmount.IsZero())
	require.Equal(t, "blurry receipt", f.notifier.sent[0].Reason)
}

func TestNotifierFailureKeepsDecision(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("redis down")
	p := submit(t, f, "15")

	_, err := f.svc.Verify(context.Background(), financeCaller, p.ID, VerifyInput{Decision: DecisionApprove})
	require.NoError(t, err)
	require.Equal(t, StatusVerified, f.store.payments[p.ID].Status)
}

func TestConcurrentApprovalsNeverOverpay(t *testing.T) {
	f := newFixture(t)
	var ids []int64
	for i := 0; i < 5; i++ {
		ids = append(ids, submit(t, f, "50").ID)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	approved := 0
	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := f.svc.Verify(context.Background(), financeCaller, id, VerifyInput{Decision: DecisionApprove})
			if err == nil {
				mu.Lock()
				approved++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, core.ErrValidation)
		}(id)
	}
	wg.Wait()

	require.Equal(t, 2, approved)
	require.True(t, f.store.invoices[1].PaidAmount.Equal(d("100")))
	require.Equal(t, invoices.PaymentStatusPartial, f.store.invoices[1].PaymentStatus)
}

func TestListByInvoice(t *testing.T) {
	f := newFixture(t)
	submit(t, f, "15")
	submit(t, f, "20")

	list, err := f.svc.ListByInvoice(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, list, 2)

	_, err = f.svc.ListByInvoice(context.Background(), 9)
	require.ErrorIs(t, err, core.ErrNotFound)
}
