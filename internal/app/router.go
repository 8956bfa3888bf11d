package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hairline-erp/hairline/internal/billing/invoices"
	"github.com/hairline-erp/hairline/internal/billing/payments"
	"github.com/hairline-erp/hairline/internal/documents"
	"github.com/hairline-erp/hairline/internal/inventory"
	"github.com/hairline-erp/hairline/internal/masterdata/customers"
	"github.com/hairline-erp/hairline/internal/masterdata/pricetiers"
	"github.com/hairline-erp/hairline/internal/masterdata/products"
	"github.com/hairline-erp/hairline/internal/masterdata/warehouses"
	"github.com/hairline-erp/hairline/internal/observability"
	"github.com/hairline-erp/hairline/internal/production/joborders"
	"github.com/hairline-erp/hairline/internal/rbac"
	"github.com/hairline-erp/hairline/internal/sales/orders"
	"github.com/hairline-erp/hairline/internal/sales/quotations"
	"github.com/hairline-erp/hairline/internal/staff"
	"github.com/hairline-erp/hairline/internal/workflow"
	"github.com/hairline-erp/hairline/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics
	RBAC    rbac.Middleware

	CustomersHandler  *customers.Handler
	ProductsHandler   *products.Handler
	WarehousesHandler *warehouses.Handler
	PriceTiersHandler *pricetiers.Handler
	StaffHandler      *staff.Handler
	InventoryHandler  *inventory.Handler
	QuotationsHandler *quotations.Handler
	OrdersHandler     *orders.Handler
	JobOrdersHandler  *joborders.Handler
	InvoicesHandler   *invoices.Handler
	PaymentsHandler   *payments.Handler
	WorkflowHandler   *workflow.Handler
	DocumentsHandler  *documents.Handler
	JobHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router. Everything under /api requires an identified caller.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(params.RBAC.Identify)

		mount(r, "/customers", params.CustomersHandler)
		mount(r, "/products", params.ProductsHandler)
		mount(r, "/warehouses", params.WarehousesHandler)
		mount(r, "/price-tiers", params.PriceTiersHandler)
		mount(r, "/staff", params.StaffHandler)
		mount(r, "/inventory", params.InventoryHandler)
		mount(r, "/job-orders", params.JobOrdersHandler)
		mount(r, "/payments", params.PaymentsHandler)
		mount(r, "/documents", params.DocumentsHandler)

		r.Route("/quotations", func(r chi.Router) {
			params.QuotationsHandler.MountRoutes(r)
			params.WorkflowHandler.MountQuotationRoutes(r)
		})
		r.Route("/sales-orders", func(r chi.Router) {
			params.OrdersHandler.MountRoutes(r)
			params.WorkflowHandler.MountSalesOrderRoutes(r)
		})
		r.Route("/invoices", func(r chi.Router) {
			params.InvoicesHandler.MountRoutes(r)
			params.PaymentsHandler.MountInvoiceRoutes(r)
			params.WorkflowHandler.MountInvoiceRoutes(r)
		})
	})

	return r
}

type mounter interface {
	MountRoutes(r chi.Router)
}

func mount(r chi.Router, pattern string, h mounter) {
	r.Route(pattern, h.MountRoutes)
}
