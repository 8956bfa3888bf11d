package workflow

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

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

const bucketID int64 = 99

// memoryStore serializes transactions, which stands in for the row locks taken in PostgreSQL.
type memoryStore struct {
	txMu sync.Mutex

	nextID     int64
	seq        map[string]int64
	quotations map[int64]quotations.Quotation
	orders     map[int64]orders.SalesOrder
	jobs       map[int64]joborders.JobOrder
	invoices   map[int64]invoices.Invoice
	movements  []inventory.Movement
	audits     []core.AuditLog
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		seq:        make(map[string]int64),
		quotations: make(map[int64]quotations.Quotation),
		orders:     make(map[int64]orders.SalesOrder),
		jobs:       make(map[int64]joborders.JobOrder),
		invoices:   make(map[int64]invoices.Invoice),
	}
}

func (s *memoryStore) WithTx(ctx context.Context, fn func(context.Context, Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	snap := s.snapshot()
	if err := fn(ctx, memoryTx{s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	nextID     int64
	seq        map[string]int64
	quotations map[int64]quotations.Quotation
	orders     map[int64]orders.SalesOrder
	jobs       map[int64]joborders.JobOrder
	invoices   map[int64]invoices.Invoice
	movements  int
	audits     int
}

func (s *memoryStore) snapshot() snapshot {
	return snapshot{
		nextID:     s.nextID,
		seq:        copyMap(s.seq),
		quotations: copyMap(s.quotations),
		orders:     copyMap(s.orders),
		jobs:       copyMap(s.jobs),
		invoices:   copyMap(s.invoices),
		movements:  len(s.movements),
		audits:     len(s.audits),
	}
}

func (s *memoryStore) restore(snap snapshot) {
	s.nextID = snap.nextID
	s.seq = snap.seq
	s.quotations = snap.quotations
	s.orders = snap.orders
	s.jobs = snap.jobs
	s.invoices = snap.invoices
	s.movements = s.movements[:snap.movements]
	s.audits = s.audits[:snap.audits]
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s *memoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memoryStore) increment(class numbering.Class, year, month int) int64 {
	key := fmt.Sprintf("%s:%d:%d", class, year, month)
	s.seq[key]++
	return s.seq[key]
}

type memoryTx struct{ s *memoryStore }

func (t memoryTx) Quotations() quotations.Repository { return quotationRepo{s: t.s} }
func (t memoryTx) Orders() orders.Repository         { return orderRepo{s: t.s} }
func (t memoryTx) JobOrders() joborders.Repository   { return jobRepo{s: t.s} }
func (t memoryTx) Invoices() invoices.Repository     { return invoiceRepo{s: t.s} }
func (t memoryTx) Stock() inventory.TxRepository     { return stockRepo{s: t.s} }

func (t memoryTx) Audit(ctx context.Context, log core.AuditLog) error {
	t.s.audits = append(t.s.audits, log)
	return nil
}

type quotationRepo struct {
	quotations.Repository
	s *memoryStore
}

func (r quotationRepo) Increment(ctx context.Context, class numbering.Class, year, month int) (int64, error) {
	return r.s.increment(class, year, month), nil
}

func (r quotationRepo) GetForUpdate(ctx context.Context, id int64) (quotations.Quotation, error) {
	q, ok := r.s.quotations[id]
	if !ok {
		return quotations.Quotation{}, core.NotFound("Quotation", id)
	}
	q.Lines = salesshared.CopyLines(q.Lines)
	return q, nil
}

func (r quotationRepo) Update(ctx context.Context, q quotations.Quotation) error {
	r.s.quotations[q.ID] = q
	return nil
}

type orderRepo struct {
	orders.Repository
	s *memoryStore
}

func (r orderRepo) Increment(ctx context.Context, class numbering.Class, year, month int) (int64, error) {
	return r.s.increment(class, year, month), nil
}

func (r orderRepo) GetForUpdate(ctx context.Context, id int64) (orders.SalesOrder, error) {
	o, ok := r.s.orders[id]
	if !ok {
		return orders.SalesOrder{}, core.NotFound("Sales order", id)
	}
	o.Lines = salesshared.CopyLines(o.Lines)
	return o, nil
}

func (r orderRepo) Create(ctx context.Context, o orders.SalesOrder) (orders.SalesOrder, error) {
	o.ID = r.s.id()
	r.s.orders[o.ID] = o
	return o, nil
}

func (r orderRepo) MarkConfirmed(ctx context.Context, id, staffID int64, at time.Time) error {
	o := r.s.orders[id]
	o.IsConfirmed = true
	o.Status = orders.SalesOrderStatusConfirmed
	o.ConfirmedBy = &staffID
	o.ConfirmedAt = &at
	r.s.orders[id] = o
	return nil
}

func (r orderRepo) ListConfirmedWithoutInvoice(ctx context.Context, limit int) ([]orders.SalesOrder, error) {
	invoiced := make(map[int64]bool)
	for _, inv := range r.s.invoices {
		invoiced[inv.SalesOrderID] = true
	}
	var out []orders.SalesOrder
	for _, o := range r.s.orders {
		if o.IsConfirmed && !invoiced[o.ID] {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type jobRepo struct {
	joborders.Repository
	s *memoryStore
}

func (r jobRepo) Create(ctx context.Context, jo joborders.JobOrder) (joborders.JobOrder, error) {
	for _, existing := range r.s.jobs {
		if existing.SalesOrderID != nil && jo.SalesOrderID != nil && *existing.SalesOrderID == *jo.SalesOrderID {
			return joborders.JobOrder{}, core.AlreadyConfirmed(jo.Number)
		}
	}
	jo.ID = r.s.id()
	r.s.jobs[jo.ID] = jo
	return jo, nil
}

type invoiceRepo struct {
	invoices.Repository
	s *memoryStore
}

func (r invoiceRepo) GetBySalesOrder(ctx context.Context, salesOrderID int64) (invoices.Invoice, error) {
	for _, inv := range r.s.invoices {
		if inv.SalesOrderID == salesOrderID {
			return inv, nil
		}
	}
	return invoices.Invoice{}, core.NotFound("Invoice for sales order", salesOrderID)
}

func (r invoiceRepo) Create(ctx context.Context, inv invoices.Invoice) (invoices.Invoice, error) {
	for _, existing := range r.s.invoices {
		if existing.SalesOrderID == inv.SalesOrderID || existing.Number == inv.Number {
			return invoices.Invoice{}, core.DuplicateInvoice(inv.Number)
		}
	}
	inv.ID = r.s.id()
	r.s.invoices[inv.ID] = inv
	return inv, nil
}

type stockRepo struct{ s *memoryStore }

func (r stockRepo) LockStock(ctx context.Context, warehouseID, productID int64) error { return nil }

func (r stockRepo) Stock(ctx context.Context, warehouseID, productID int64) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, m := range r.s.movements {
		if m.WarehouseID == warehouseID && m.ProductID == productID {
			total = total.Add(m.Quantity)
		}
	}
	return total, nil
}

func (r stockRepo) InsertMovement(ctx context.Context, m inventory.Movement) (inventory.Movement, error) {
	m.ID = r.s.id()
	r.s.movements = append(r.s.movements, m)
	return m, nil
}

type stubBucket struct{ err error }

func (b stubBucket) ReservedBucket(ctx context.Context) (warehouses.Warehouse, error) {
	if b.err != nil {
		return warehouses.Warehouse{}, b.err
	}
	return warehouses.Warehouse{ID: bucketID, Code: "RESERVED", IsReservedBucket: true, IsActive: true}, nil
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var staff = core.Caller{StaffID: 7, Role: "sales"}

func newTestService(store *memoryStore) *Service {
	now := time.Date(2025, 8, 4, 9, 30, 0, 0, time.UTC)
	return NewService(Config{
		Store:   store,
		Numbers: numbering.NewService(time.UTC).WithClock(func() time.Time { return now }),
		Ledger:  inventory.NewService(nil, inventory.ServiceConfig{}),
		Buckets: stubBucket{},
	})
}

// seedQuotation stores one quotation of 2 bundles at 50.00 plus 15.00 shipping: 115.00.
func seedQuotation(store *memoryStore, status quotations.QuotationStatus) quotations.Quotation {
	fees := salesshared.Fees{ShippingFee: d("15.00")}
	lines, totals := salesshared.Recalculate([]salesshared.Line{
		{LineNo: 1, ProductID: 10, Description: "Bulk Hair 20in", Unit: "bundle", Quantity: d("2"), UnitPrice: d("50.00")},
	}, fees)
	q := quotations.Quotation{
		ID:            store.id(),
		Number:        "2025.08.001",
		CustomerID:    3,
		Status:        status,
		Fees:          fees,
		Totals:        totals,
		PaymentMethod: "transfer",
		Lines:         lines,
	}
	store.quotations[q.ID] = q
	return q
}

func seedDraftOrder(store *memoryStore, qty string) orders.SalesOrder {
	lines, totals := salesshared.Recalculate([]salesshared.Line{
		{LineNo: 1, ProductID: 10, Description: "Bulk Hair 20in", Unit: "bundle", Quantity: d(qty), UnitPrice: d("50.00")},
	}, salesshared.Fees{})
	o := orders.SalesOrder{
		ID:         store.id(),
		Number:     "2025.08.001",
		CustomerID: 3,
		Status:     orders.SalesOrderStatusDraft,
		Totals:     totals,
		Lines:      lines,
	}
	store.orders[o.ID] = o
	return o
}

func TestConvertAndConfirmCreatesDocumentsUnderOneNumber(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()
	q := seedQuotation(store, quotations.QuotationStatusApproved)

	conv, err := svc.CreateSalesOrderFromQuotation(ctx, staff, q.ID, nil)
	require.NoError(t, err)
	require.Equal(t, "2025.08.001", conv.Number)

	converted := store.quotations[q.ID]
	require.Equal(t, quotations.QuotationStatusConverted, converted.Status)
	require.Equal(t, conv.SalesOrderID, *converted.SalesOrderID)

	order := store.orders[conv.SalesOrderID]
	require.Equal(t, orders.SalesOrderStatusDraft, order.Status)
	require.Equal(t, q.ID, *order.QuotationID)
	require.True(t, order.Total.Equal(d("115.00")))
	require.Len(t, order.Lines, 1)

	result, err := svc.ConfirmSalesOrder(ctx, staff, conv.SalesOrderID)
	require.NoError(t, err)
	require.True(t, result.Order.IsConfirmed)
	require.Equal(t, "2025.08.001", result.JobOrder.Number)
	require.Equal(t, "2025.08.001", result.Invoice.Number)
	require.True(t, result.Invoice.Total.Equal(d("115.00")))
	require.Equal(t, invoices.PaymentStatusPending, result.Invoice.PaymentStatus)
	require.Equal(t, joborders.StatusPending, result.JobOrder.Status)
	require.True(t, result.JobOrder.Lines[0].ToProduce.Equal(d("2")))

	require.Len(t, result.Reservations, 1)
	m := result.Reservations[0]
	require.Equal(t, bucketID, m.WarehouseID)
	require.Equal(t, inventory.MovementReservation, m.Type)
	require.True(t, m.Quantity.Equal(d("2")))
	require.Equal(t, fmt.Sprintf("sales_order:%d", conv.SalesOrderID), m.ReferenceID)
	require.Equal(t, staff.StaffID, m.CreatedBy)

	require.True(t, store.orders[conv.SalesOrderID].IsConfirmed)
	require.Len(t, store.audits, 2)
}

func TestConfirmReservesEveryLine(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	o := seedDraftOrder(store, "3")
	o.Lines = append(o.Lines, salesshared.Line{LineNo: 2, ProductID: 11, Quantity: d("1.5"), UnitPrice: d("12.40"), LineTotal: d("18.60")})
	store.orders[o.ID] = o

	result, err := svc.ConfirmSalesOrder(context.Background(), staff, o.ID)
	require.NoError(t, err)
	require.Len(t, result.Reservations, 2)

	stock, err := stockRepo{s: store}.Stock(context.Background(), bucketID, 10)
	require.NoError(t, err)
	require.True(t, stock.Equal(d("3")))
}

func TestConfirmTwiceFailsWithoutSideEffects(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()
	o := seedDraftOrder(store, "3")

	_, err := svc.ConfirmSalesOrder(ctx, staff, o.ID)
	require.NoError(t, err)
	jobs, invs, moves := len(store.jobs), len(store.invoices), len(store.movements)

	_, err = svc.ConfirmSalesOrder(ctx, staff, o.ID)
	require.ErrorIs(t, err, core.ErrAlreadyConfirmed)
	require.Contains(t, core.StaffMessage(err), "2025.08.001")
	require.Len(t, store.jobs, jobs)
	require.Len(t, store.invoices, invs)
	require.Len(t, store.movements, moves)
}

func TestConcurrentConfirmSucceedsOnce(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	o := seedDraftOrder(store, "3")

	const workers = 10
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ConfirmSalesOrder(context.Background(), staff, o.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, core.ErrAlreadyConfirmed)
	}
	require.Equal(t, 1, succeeded)
	require.Len(t, store.jobs, 1)
	require.Len(t, store.invoices, 1)
	require.Len(t, store.movements, 1)
}

func TestConfirmRollsBackWhenInvoiceAlreadyExists(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	o := seedDraftOrder(store, "3")
	store.invoices[store.id()] = invoices.Invoice{Number: o.Number, SalesOrderID: o.ID}

	_, err := svc.ConfirmSalesOrder(context.Background(), staff, o.ID)
	require.ErrorIs(t, err, core.ErrAlreadyConfirmed)
	require.False(t, store.orders[o.ID].IsConfirmed)
	require.Empty(t, store.jobs)
	require.Empty(t, store.movements)
	require.Empty(t, store.audits)
}

func TestConfirmRules(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	_, err := svc.ConfirmSalesOrder(ctx, staff, 404)
	require.ErrorIs(t, err, core.ErrNotFound)

	empty := seedDraftOrder(store, "1")
	empty.Lines = nil
	store.orders[empty.ID] = empty
	_, err = svc.ConfirmSalesOrder(ctx, staff, empty.ID)
	require.ErrorIs(t, err, core.ErrValidation)

	broken := newTestService(store)
	broken.buckets = stubBucket{err: core.Validation("No reserved stock bucket is configured.")}
	o := seedDraftOrder(store, "2")
	_, err = broken.ConfirmSalesOrder(ctx, staff, o.ID)
	require.ErrorIs(t, err, core.ErrValidation)
	require.False(t, store.orders[o.ID].IsConfirmed)
}

func TestConversionRules(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	rejected := seedQuotation(store, quotations.QuotationStatusRejected)
	_, err := svc.CreateSalesOrderFromQuotation(ctx, staff, rejected.ID, nil)
	require.ErrorIs(t, err, core.ErrInvalidState)
	require.Empty(t, store.orders)

	draft := seedQuotation(store, quotations.QuotationStatusDraft)
	fromDraft, err := svc.CreateSalesOrderFromQuotation(ctx, staff, draft.ID, nil)
	require.NoError(t, err)
	require.Equal(t, quotations.QuotationStatusConverted, store.quotations[draft.ID].Status)
	require.True(t, store.orders[fromDraft.SalesOrderID].Total.Equal(draft.Total))

	sent := seedQuotation(store, quotations.QuotationStatusSent)
	due := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	conv, err := svc.CreateSalesOrderFromQuotation(ctx, staff, sent.ID, &due)
	require.NoError(t, err)
	require.Equal(t, due, *store.orders[conv.SalesOrderID].DueDate)

	_, err = svc.CreateSalesOrderFromQuotation(ctx, staff, sent.ID, nil)
	require.ErrorIs(t, err, core.ErrInvalidState)
	require.Len(t, store.orders, 2)

	second := seedQuotation(store, quotations.QuotationStatusApproved)
	conv2, err := svc.CreateSalesOrderFromQuotation(ctx, staff, second.ID, nil)
	require.NoError(t, err)
	require.Equal(t, "2025.08.003", conv2.Number)
}

func TestGenerateInvoice(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	o := seedDraftOrder(store, "2")
	_, err := svc.GenerateInvoice(ctx, staff, o.ID)
	require.ErrorIs(t, err, core.ErrInvalidState)

	o.IsConfirmed = true
	o.Status = orders.SalesOrderStatusConfirmed
	store.orders[o.ID] = o

	inv, err := svc.GenerateInvoice(ctx, staff, o.ID)
	require.NoError(t, err)
	require.Equal(t, o.Number, inv.Number)
	require.True(t, inv.Total.Equal(d("100.00")))

	_, err = svc.GenerateInvoice(ctx, staff, o.ID)
	require.ErrorIs(t, err, core.ErrDuplicateInvoice)
	require.Len(t, store.invoices, 1)
}

func TestGenerateMissingInvoices(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	for _, number := range []string{"2025.08.001", "2025.08.002"} {
		o := seedDraftOrder(store, "1")
		o.Number = number
		o.IsConfirmed = true
		o.Status = orders.SalesOrderStatusConfirmed
		store.orders[o.ID] = o
	}
	seedDraftOrder(store, "1")

	result, err := svc.GenerateMissingInvoices(ctx, staff)
	require.NoError(t, err)
	require.Equal(t, []string{"2025.08.001", "2025.08.002"}, result.Generated)
	require.Empty(t, result.Skipped)

	again, err := svc.GenerateMissingInvoices(ctx, staff)
	require.NoError(t, err)
	require.Empty(t, again.Generated)
}
