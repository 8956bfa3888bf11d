package workflow

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hairline-erp/hairline/internal/platform/httpx"
	"github.com/hairline-erp/hairline/internal/rbac"
	core "github.com/hairline-erp/hairline/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// ConvertRequest optionally carries the due date of the new sales order.
type ConvertRequest struct {
	DueDate string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

// MountQuotationRoutes registers workflow routes under /quotations.
func (h *Handler) MountQuotationRoutes(r chi.Router) {
	r.With(h.rbac.RequireAll(core.PermSalesOrderCreate)).Post("/{id}/convert", h.Convert)
}

// MountSalesOrderRoutes registers workflow routes under /sales-orders.
func (h *Handler) MountSalesOrderRoutes(r chi.Router) {
	r.With(h.rbac.RequireAll(core.PermSalesOrderConfirm)).Post("/{id}/confirm", h.Confirm)
	r.With(h.rbac.RequireAll(core.PermInvoiceGenerate)).Post("/{id}/invoice", h.GenerateInvoice)
}

// MountInvoiceRoutes registers workflow routes under /invoices.
func (h *Handler) MountInvoiceRoutes(r chi.Router) {
	r.With(h.rbac.RequireAll(core.PermInvoiceGenerate)).Post("/generate-missing", h.GenerateMissing)
}

func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req ConvertRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeAndValidate(r, &req); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	var due *time.Time
	if req.DueDate != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, req.DueDate, h.service.numbers.Location())
		if err != nil {
			httpx.RespondError(w, core.ValidationFields(map[string]string{"due_date": "must be a date (YYYY-MM-DD)"}))
			return
		}
		due = &parsed
	}
	caller, _ := core.CallerFromContext(r.Context())
	result, err := h.service.CreateSalesOrderFromQuotation(r.Context(), caller, id, due)
	if err != nil {
		h.fail(w, "convert quotation", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	caller, _ := core.CallerFromContext(r.Context())
	result, err := h.service.ConfirmSalesOrder(r.Context(), caller, id)
	if err != nil {
		h.fail(w, "confirm sales order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) GenerateInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	caller, _ := core.CallerFromContext(r.Context())
	inv, err := h.service.GenerateInvoice(r.Context(), caller, id)
	if err != nil {
		h.fail(w, "generate invoice", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) GenerateMissing(w http.ResponseWriter, r *http.Request) {
	caller, _ := core.CallerFromContext(r.Context())
	result, err := h.service.GenerateMissingInvoices(r.Context(), caller)
	if err != nil {
		// partial batches still report what was generated
		h.logger.Warn("generate missing invoices", slog.Any("error", err), slog.Int("failed", len(result.Failed)))
		if len(result.Generated)+len(result.Skipped)+len(result.Failed) == 0 {
			h.fail(w, "generate missing invoices", err)
			return
		}
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	var domain *core.Error
	if !errors.As(err, &domain) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
