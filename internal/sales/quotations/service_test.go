package quotations

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/hairline-erp/hairline/internal/masterdata/customers"
	"github.com/hairline-erp/hairline/internal/numbering"
	"github.com/hairline-erp/hairline/internal/pricing"
	salesshared "github.com/hairline-erp/hairline/internal/sales/shared"
	core "github.com/hairline-erp/hairline/internal/shared"
)

type memoryRepo struct {
	mu     sync.Mutex
	now    func() time.Time
	nextID int64
	rows   map[int64]Quotation
	seq    map[string]int64
}

func newMemoryRepo(now func() time.Time) *memoryRepo {
	return &memoryRepo{now: now, rows: make(map[int64]Quotation), seq: make(map[string]int64)}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	m.mu.Lock()
	snapshot := make(map[int64]Quotation, len(m.rows))
	for id, q := range m.rows {
		snapshot[id] = q
	}
	m.mu.Unlock()
	if err := fn(ctx, m); err != nil {
		m.mu.Lock()
		m.rows = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memoryRepo) Increment(ctx context.Context, class numbering.Class, year, month int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("%s:%d:%d", class, year, month)
	m.seq[key]++
	return m.seq[key], nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (Quotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.rows[id]
	if !ok {
		return Quotation{}, core.NotFound("Quotation", id)
	}
	q.Lines = salesshared.CopyLines(q.Lines)
	return q, nil
}

func (m *memoryRepo) GetForUpdate(ctx context.Context, id int64) (Quotation, error) {
	return m.Get(ctx, id)
}

func (m *memoryRepo) List(ctx context.Context, filters salesshared.DocumentFilters) ([]Quotation, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Quotation
	for _, q := range m.rows {
		if filters.Status != "" && string(q.Status) != filters.Status {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *memoryRepo) Create(ctx context.Context, q Quotation) (Quotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	q.ID = m.nextID
	q.CreatedAt = m.now()
	q.RevisedAt = q.CreatedAt
	q.UpdatedAt = q.CreatedAt
	for i := range q.Lines {
		q.Lines[i].ID = q.ID*100 + int64(i+1)
	}
	m.rows[q.ID] = q
	return q, nil
}

func (m *memoryRepo) Update(ctx context.Context, q Quotation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[q.ID]; !ok {
		return core.NotFound("Quotation", q.ID)
	}
	q.UpdatedAt = m.now()
	m.rows[q.ID] = q
	return nil
}

func (m *memoryRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

type stubCustomers map[int64]customers.Customer

func (s stubCustomers) Active(ctx context.Context, id int64) (customers.Customer, error) {
	c, ok := s[id]
	if !ok {
		return customers.Customer{}, core.NotFound("Customer", id)
	}
	if !c.IsActive {
		return customers.Customer{}, core.Validation("Customer %s is inactive.", c.Code)
	}
	return c, nil
}

type stubTiers map[int64]pricing.Tier

func (s stubTiers) Tier(ctx context.Context, id int64) (pricing.Tier, error) {
	t, ok := s[id]
	if !ok {
		return pricing.Tier{}, core.NotFound("Price tier", id)
	}
	return t, nil
}

type stubProducts map[int64]pricing.Product

func (s stubProducts) Product(ctx context.Context, id int64) (pricing.Product, error) {
	p, ok := s[id]
	if !ok {
		return pricing.Product{}, core.NotFound("Product", id)
	}
	return p, nil
}

type recordingAudit struct {
	mu      sync.Mutex
	actions []string
}

func (a *recordingAudit) Record(ctx context.Context, log core.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, log.Action)
	return nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(v int64) *int64 { return &v }

const (
	regularTier int64 = 1
	premierTier int64 = 2
)

type fixture struct {
	svc   *Service
	repo  *memoryRepo
	clock *clock
	audit *recordingAudit
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	c := &clock{t: time.Date(2025, 8, 4, 9, 0, 0, 0, time.UTC)}
	repo := newMemoryRepo(c.now)
	prices := pricing.NewResolver(
		stubTiers{
			regularTier: {ID: regularTier, Code: "REGULAR", Multiplier: "1.0"},
			premierTier: {ID: premierTier, Code: "PREMIER", Multiplier: "0.85"},
		},
		stubProducts{
			10: {ID: 10, Name: "Bulk Hair 20in", Unit: "bundle", BasePrice: d("50.00"), Active: true},
			11: {ID: 11, Name: "Tape-in 18in", Unit: "pcs", BasePrice: d("12.40"), Active: true},
		},
	)
	custs := stubCustomers{
		1: {ID: 1, Code: "C-001", PriceTierID: ptr(regularTier), IsActive: true},
		2: {ID: 2, Code: "C-002", IsActive: false},
		3: {ID: 3, Code: "C-003", PriceTierID: ptr(premierTier), IsActive: true},
	}
	numbers := numbering.NewService(time.UTC).WithClock(c.now)
	audit := &recordingAudit{}
	return fixture{
		svc:   NewService(repo, custs, prices, numbers, audit, nil),
		repo:  repo,
		clock: c,
		audit: audit,
	}
}

var sales = core.Caller{StaffID: 7, Role: core.RoleSales}

func oneLine(qty string) []salesshared.LineInput {
	return []salesshared.LineInput{{ProductID: 10, Quantity: d(qty)}}
}

func TestCreateComputesTotalsFromLinesAndFees(t *testing.T) {
	f := newFixture(t)
	q, err := f.svc.Create(context.Background(), sales, CreateQuotationRequest{
		CustomerID: 1,
		Lines:      oneLine("2"),
		Fees:       salesshared.Fees{ShippingFee: d("10"), BankCharge: d("5")},
	})
	require.NoError(t, err)
	require.Equal(t, "2025.08.001", q.Number)
	require.Equal(t, "R0", q.RevisionTag())
	require.Equal(t, QuotationStatusDraft, q.Status)
	require.Equal(t, ptr(regularTier), q.PriceTierID)
	require.EqualValues(t, 7, q.CreatedBy)
	require.True(t, q.Subtotal.Equal(d("100.00")))
	require.True(t, q.Total.Equal(d("115.00")))
	require.Equal(t, []string{"quotation:create"}, f.audit.actions)
}

func TestCreateRejectsInactiveCustomerAndEmptyLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, sales, CreateQuotationRequest{CustomerID: 2, Lines: oneLine("1")})
	require.ErrorIs(t, err, core.ErrValidation)

	_, err = f.svc.Create(ctx, sales, CreateQuotationRequest{CustomerID: 1})
	require.ErrorIs(t, err, core.ErrValidation)

	_, err = f.svc.Create(ctx, sales, CreateQuotationRequest{
		CustomerID: 1,
		Lines:      oneLine("1"),
		Fees:       salesshared.Fees{Discount: d("-1")},
	})
	require.ErrorIs(t, err, core.ErrValidation)
	require.Empty(t, f.repo.rows)
}

func TestChangePriceTierRescalesEveryLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q, err := f.svc.Create(ctx, sales, CreateQuotationRequest{
		CustomerID: 1,
		Lines: []salesshared.LineInput{
			{ProductID: 10, Quantity: d("2")},
			{ProductID: 11, Quantity: d("3")},
		},
	})
	require.NoError(t, err)
	require.True(t, q.Subtotal.Equal(d("137.20")))

	q, err = f.svc.ChangePriceTier(ctx, sales, q.ID, ptr(premierTier))
	require.NoError(t, err)
	require.Equal(t, ptr(premierTier), q.PriceTierID)
	require.True(t, q.Lines[0].UnitPrice.Equal(d("42.50")))
	require.True(t, q.Lines[0].LineTotal.Equal(d("85.00")))
	require.True(t, q.Lines[1].UnitPrice.Equal(d("10.54")))
	require.True(t, q.Lines[1].LineTotal.Equal(d("31.62")))
	require.True(t, q.Subtotal.Equal(d("116.62")))
	require.True(t, q.Total.Equal(q.Subtotal))
}

func TestUpdateCustomerAdoptsItsTierAndRepricesLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q, err := f.svc.Create(ctx, sales, CreateQuotationRequest{
		CustomerID: 1,
		Lines: []salesshared.LineInput{
			{ProductID: 10, Quantity: d("2")},
			{ProductID: 11, Quantity: d("3")},
		},
	})
	require.NoError(t, err)
	require.True(t, q.Subtotal.Equal(d("137.20")))

	q, err = f.svc.Update(ctx, sales, q.ID, UpdateQuotationRequest{CustomerID: ptr(3)})
	require.NoError(t, err)
	require.Equal(t, int64(3), q.CustomerID)
	require.Equal(t, ptr(premierTier), q.PriceTierID)
	require.True(t, q.Lines[0].UnitPrice.Equal(d("42.50")))
	require.True(t, q.Lines[1].UnitPrice.Equal(d("10.54")))
	require.True(t, q.Subtotal.Equal(d("116.62")))
	require.True(t, q.Total.Equal(q.Subtotal))

	_, err = f.svc.Update(ctx, sales, q.ID, UpdateQuotationRequest{CustomerID: ptr(2)})
	require.ErrorIs(t, err, core.ErrValidation)
	_, err = f.svc.Update(ctx, sales, q.ID, UpdateQuotationRequest{CustomerID: ptr(99)})
	require.ErrorIs(t, err, core.ErrNotFound)

	q, err = f.svc.Update(ctx, sales, q.ID, UpdateQuotationRequest{CustomerID: ptr(1), PriceTierID: ptr(premierTier)})
	require.NoError(t, err)
	require.Equal(t, int64(1), q.CustomerID)
	require.Equal(t, ptr(premierTier), q.PriceTierID)
	require.True(t, q.Subtotal.Equal(d("116.62")))
}

func TestDiscountAboveSubtotalPlusFeesIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, sales, CreateQuotationRequest{CustomerID: 1, Lines: oneLine("1"), Fees: salesshared.Fees{Discount: d("60")}})
	require.ErrorIs(t, err, core.ErrValidation)
	require.Contains(t, core.FieldErrors(err), "discount")

	q, err := f.svc.Create(ctx, sales, CreateQuotationRequest{CustomerID: 1, Lines: oneLine("1"), Fees: salesshared.Fees{Discount: d("45")}})
	require.NoError(t, err)
	require.True(t, q.Total.Equal(d("5.00")))

	_, err = f.svc.Update(ctx, sales, q.ID, UpdateQuotationRequest{Fees: &salesshared.Fees{Discount: d("50.01")}})
	require.ErrorIs(t, err, core.ErrValidation)

	_, err = f.svc.ChangePriceTier(ctx, sales, q.ID, ptr(premierTier))
	require.ErrorIs(t, err, core.ErrValidation)

	stored, err := f.svc.Get(ctx, q.ID)
	require.NoError(t, err)
	require.True(t, stored.Total.Equal(d("5.00")))
	require.Equal(t, ptr(regularTier), stored.PriceTierID)
}

func TestUpdateLocksAfterTheBusinessDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q, err := f.svc.Create(ctx, sales, CreateQuotationRequest{CustomerID: 1, Lines: oneLine("2")})
	require.NoError(t, err)

	notes := "same day edit"
	f.clock.t = f.clock.t.Add(14 * time.Hour)
	q, err = f.svc.Update(ctx, sales, q.ID, UpdateQuotationRequest{Notes: &notes, Lines: oneLine("4")})
	require.NoError(t, err)
	require.True(t, q.Subtotal.Equal(d("200.00")))

	f.clock.t = time.Date(2025, 8, 5, 0, 0, 0, 0, time.UTC)
	_, err = f.svc.Update(ctx, sales, q.ID, UpdateQuotationRequest{Lines: oneLine("1")})
	require.ErrorIs(t, err, core.ErrDocumentLocked)
	require.Contains(t, err.Error(), "4 Aug 2025")

	stored, err := f.svc.Get(ctx, q.ID)
	require.NoError(t, err)
	require.True(t, stored.Subtotal.Equal(d("200.00")))

	// a revision reopens the window for the new business day
	q, err = f.svc.Revise(ctx, sales, q.ID)
	require.NoError(t, err)
	require.Equal(t, "R1", q.RevisionTag())
	q, err = f.svc.Update(ctx, sales, q.ID, UpdateQuotationRequest{Lines: oneLine("1")})
	require.NoError(t, err)
	require.True(t, q.Subtotal.Equal(d("50.00")))
}

func TestLifecycleTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q, err := f.svc.Create(ctx, sales, CreateQuotationRequest{CustomerID: 1, Lines: oneLine("1")})
	require.NoError(t, err)

	q, err = f.svc.Send(ctx, sales, q.ID)
	require.NoError(t, err)
	require.Equal(t, QuotationStatusSent, q.Status)

	_, err = f.svc.Send(ctx, sales, q.ID)
	require.ErrorIs(t, err, core.ErrInvalidState)

	_, err = f.svc.Update(ctx, sales, q.ID, UpdateQuotationRequest{Lines: oneLine("2")})
	require.ErrorIs(t, err, core.ErrInvalidState)

	_, err = f.svc.Reject(ctx, sales, q.ID, "  ")
	require.ErrorIs(t, err, core.ErrValidation)

	q, err = f.svc.Reject(ctx, sales, q.ID, "price too high")
	require.NoError(t, err)
	require.Equal(t, QuotationStatusRejected, q.Status)
	require.Equal(t, "price too high", *q.RejectionReason)

	_, err = f.svc.Approve(ctx, sales, q.ID)
	require.ErrorIs(t, err, core.ErrInvalidState)

	q, err = f.svc.Revise(ctx, sales, q.ID)
	require.NoError(t, err)
	require.Equal(t, QuotationStatusDraft, q.Status)
	require.Nil(t, q.RejectionReason)

	q, err = f.svc.Approve(ctx, sales, q.ID)
	require.NoError(t, err)
	require.Equal(t, QuotationStatusApproved, q.Status)
}

func TestReviseStopsAtR5AndRefusesConverted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q, err := f.svc.Create(ctx, sales, CreateQuotationRequest{CustomerID: 1, Lines: oneLine("1")})
	require.NoError(t, err)

	for i := 1; i <= salesshared.MaxRevision; i++ {
		q, err = f.svc.Revise(ctx, sales, q.ID)
		require.NoError(t, err)
	}
	require.Equal(t, "R5", q.RevisionTag())
	_, err = f.svc.Revise(ctx, sales, q.ID)
	require.ErrorIs(t, err, core.ErrInvalidState)

	converted := f.repo.rows[q.ID]
	converted.Status = QuotationStatusConverted
	converted.SalesOrderID = ptr(99)
	converted.Revision = 1
	f.repo.rows[q.ID] = converted

	_, err = f.svc.Revise(ctx, sales, q.ID)
	require.ErrorIs(t, err, core.ErrInvalidState)
	require.ErrorIs(t, f.svc.Delete(ctx, sales, q.ID), core.ErrInvalidState)
}

func TestDuplicateStartsFreshDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	src, err := f.svc.Create(ctx, sales, CreateQuotationRequest{
		CustomerID: 1,
		Lines:      oneLine("2"),
		Fees:       salesshared.Fees{ShippingFee: d("10")},
	})
	require.NoError(t, err)
	src, err = f.svc.Revise(ctx, sales, src.ID)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, sales, src.ID)
	require.NoError(t, err)

	dup, err := f.svc.Duplicate(ctx, core.Caller{StaffID: 8}, src.ID)
	require.NoError(t, err)
	require.NotEqual(t, src.ID, dup.ID)
	require.Equal(t, "2025.08.002", dup.Number)
	require.Equal(t, "R0", dup.RevisionTag())
	require.Equal(t, QuotationStatusDraft, dup.Status)
	require.EqualValues(t, 8, dup.CreatedBy)
	require.True(t, dup.Total.Equal(src.Total))
	require.Len(t, dup.Lines, 1)
	require.NotEqual(t, src.Lines[0].ID, dup.Lines[0].ID)
}

func TestDeleteDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q, err := f.svc.Create(ctx, sales, CreateQuotationRequest{CustomerID: 1, Lines: oneLine("1")})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, sales, q.ID))
	_, err = f.svc.Get(ctx, q.ID)
	require.ErrorIs(t, err, core.ErrNotFound)
	require.ErrorIs(t, f.svc.Delete(ctx, sales, q.ID), core.ErrNotFound)
}
