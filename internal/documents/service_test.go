package documents

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/hairline-erp/hairline/internal/billing/invoices"
	"github.com/hairline-erp/hairline/internal/billing/payments"
	"github.com/hairline-erp/hairline/internal/masterdata/customers"
	"github.com/hairline-erp/hairline/internal/production/joborders"
	"github.com/hairline-erp/hairline/internal/rbac"
	"github.com/hairline-erp/hairline/internal/sales/quotations"
	salesshared "github.com/hairline-erp/hairline/internal/sales/shared"
	core "github.com/hairline-erp/hairline/internal/shared"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type stubQuotations map[int64]quotations.Quotation

func (s stubQuotations) Get(ctx context.Context, id int64) (quotations.Quotation, error) {
	q, ok := s[id]
	if !ok {
		return quotations.Quotation{}, core.NotFound("Quotation", id)
	}
	return q, nil
}

type stubJobOrders map[int64]joborders.JobOrder

func (s stubJobOrders) Get(ctx context.Context, id int64) (joborders.JobOrder, error) {
	jo, ok := s[id]
	if !ok {
		return joborders.JobOrder{}, core.NotFound("Job order", id)
	}
	return jo, nil
}

type stubInvoices map[int64]invoices.Invoice

func (s stubInvoices) Get(ctx context.Context, id int64) (invoices.Invoice, error) {
	inv, ok := s[id]
	if !ok {
		return invoices.Invoice{}, core.NotFound("Invoice", id)
	}
	return inv, nil
}

type stubPayments map[int64][]payments.Payment

func (s stubPayments) ListByInvoice(ctx context.Context, invoiceID int64) ([]payments.Payment, error) {
	return s[invoiceID], nil
}

type stubCustomers map[int64]customers.Customer

func (s stubCustomers) Get(ctx context.Context, id int64) (customers.Customer, error) {
	c, ok := s[id]
	if !ok {
		return customers.Customer{}, core.NotFound("Customer", id)
	}
	return c, nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	format, err := NewFormatter("USD", "en")
	require.NoError(t, err)

	fees := salesshared.Fees{ShippingFee: d("15.00")}
	lines, totals := salesshared.Recalculate([]salesshared.Line{
		{ProductID: 10, Description: "Bulk Hair 20in", Unit: "bundle", Quantity: d("2"), UnitPrice: d("50.00")},
	}, fees)
	big, bigTotals := salesshared.Recalculate([]salesshared.Line{
		{ProductID: 10, Description: "Bulk Hair 20in", Unit: "bundle", Quantity: d("30"), UnitPrice: d("41.15")},
	}, salesshared.Fees{})
	email := "buyer@example.com"

	return NewService(Sources{
		Quotations: stubQuotations{
			1: {ID: 1, Number: "2025.08.001", Revision: 2, CustomerID: 3, Status: quotations.QuotationStatusSent, Fees: fees, Totals: totals, Lines: lines},
			2: {ID: 2, Number: "2025.08.002", CustomerID: 404, Lines: lines},
		},
		JobOrders: stubJobOrders{
			5: {ID: 5, Number: "2025.08.001", CustomerID: 3, Status: joborders.StatusInProgress, Lines: []joborders.Line{
				{LineNo: 1, Description: "Bulk Hair 20in", Unit: "bundle", ToProduce: d("2"), Reserved: d("2"), Ready: d("1"), Shipped: d("0"), OrderBalance: d("2")},
			}},
		},
		Invoices: stubInvoices{
			7: {ID: 7, Number: "2025.08.001", CustomerID: 3, Totals: bigTotals, Lines: big, PaidAmount: d("200"), PaymentStatus: invoices.PaymentStatusPartial, IssuedAt: time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC)},
		},
		Payments: stubPayments{
			7: {{Number: "2025.08.001", Status: payments.StatusVerified, Method: "transfer", Amount: d("200")}},
		},
		Customers: stubCustomers{
			3: {ID: 3, Code: "C-003", Name: "Lagos Beauty", Country: "NG", Email: &email},
		},
	}, format)
}

func TestFormatterGroupsThousands(t *testing.T) {
	f, err := NewFormatter("USD", "en")
	require.NoError(t, err)
	require.Equal(t, "USD 1,234.50", f.Money(d("1234.5")))
	require.Equal(t, "USD 0.00", f.Money(decimal.Zero))

	_, err = NewFormatter("XYZ1", "en")
	require.Error(t, err)
}

func TestProjectQuotation(t *testing.T) {
	svc := newTestService(t)
	proj, err := svc.Project(context.Background(), KindQuotation, 1)
	require.NoError(t, err)
	require.Equal(t, "2025.08.001", proj.Number)
	require.Equal(t, "R2", proj.Revision)
	require.Equal(t, "Lagos Beauty", proj.Customer.Name)
	require.Equal(t, "buyer@example.com", proj.Customer.Email)
	require.Len(t, proj.Lines, 1)
	require.Equal(t, "USD 50.00", proj.Lines[0].UnitPrice.Text)
	require.Equal(t, "USD 115.00", proj.Summary.Total.Text)
	require.Nil(t, proj.Summary.Paid)
}

func TestProjectInvoiceIncludesPayments(t *testing.T) {
	svc := newTestService(t)
	proj, err := svc.Project(context.Background(), KindInvoice, 7)
	require.NoError(t, err)
	require.Equal(t, "partial", proj.Status)
	require.Equal(t, "USD 1,234.50", proj.Summary.Total.Text)
	require.Equal(t, "USD 1,034.50", proj.Summary.Balance.Text)
	require.Len(t, proj.Payments, 1)
	require.Equal(t, "USD 200.00", proj.Payments[0].Amount.Text)
}

func TestProjectJobOrderHasNoPrices(t *testing.T) {
	svc := newTestService(t)
	proj, err := svc.Project(context.Background(), KindJobOrder, 5)
	require.NoError(t, err)
	require.Nil(t, proj.Summary)
	require.Nil(t, proj.Lines[0].UnitPrice)
	require.True(t, proj.Lines[0].Ready.Equal(d("1")))
}

func TestProjectErrors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Project(ctx, Kind("receipt"), 1)
	require.ErrorIs(t, err, core.ErrValidation)

	_, err = svc.Project(ctx, KindQuotation, 99)
	require.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.Project(ctx, KindQuotation, 2)
	require.ErrorIs(t, err, core.ErrNotFound)
}

type stubDirectory map[int64]core.Caller

func (s stubDirectory) Caller(ctx context.Context, id int64) (core.Caller, error) {
	c, ok := s[id]
	if !ok {
		return core.Caller{}, core.NotFound("Staff", id)
	}
	return c, nil
}

func TestShowChecksPermissionPerKind(t *testing.T) {
	mw := rbac.Middleware{Directory: stubDirectory{
		2: {StaffID: 2, Role: core.RoleSales, Permissions: []string{core.PermQuotationView}},
	}}
	h := NewHandler(nil, newTestService(t), mw)
	r := chi.NewRouter()
	r.Use(mw.Identify)
	r.Route("/documents", h.MountRoutes)

	get := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set(rbac.StaffHeader, "2")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}
	require.Equal(t, http.StatusOK, get("/documents/quotation/1"))
	require.Equal(t, http.StatusForbidden, get("/documents/invoice/7"))
	require.Equal(t, http.StatusNotFound, get("/documents/receipt/1"))
}
