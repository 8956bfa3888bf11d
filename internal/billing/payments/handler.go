package payments

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

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

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(core.PermInvoiceView, core.PermPaymentVerify))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(core.PermPaymentSubmit))
		r.Post("/", h.Submit)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(core.PermPaymentVerify))
		r.Post("/{id}/verify", h.Verify)
	})
}

// MountInvoiceRoutes adds /{id}/payments under the invoice router.
func (h *Handler) MountInvoiceRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(core.PermInvoiceView, core.PermPaymentVerify)).Get("/{id}/payments", h.ListByInvoice)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := core.PageParams(r)
	invoiceID, _ := strconv.ParseInt(r.URL.Query().Get("invoice_id"), 10, 64)
	filters := ListFilters{
		InvoiceID: invoiceID,
		Status:    strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))),
		Page:      page,
		Limit:     limit,
		Offset:    offset,
	}
	payments, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list payments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Paged[Payment]{Data: payments, Pagination: core.NewPagination(page, limit, total)})
}

func (h *Handler) ListByInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	payments, err := h.service.ListByInvoice(r.Context(), id)
	if err != nil {
		h.fail(w, "list invoice payments", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": payments})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	payment, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payment)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var input SubmitInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	caller, _ := core.CallerFromContext(r.Context())
	payment, err := h.service.Submit(r.Context(), caller, input)
	if err != nil {
		h.fail(w, "submit payment", err)
		return
	}
	h.logger.Info("payment submitted", slog.String("number", payment.Number), slog.Int64("invoice_id", payment.InvoiceID))
	httpx.JSON(w, http.StatusCreated, payment)
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input VerifyInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	caller, _ := core.CallerFromContext(r.Context())
	payment, err := h.service.Verify(r.Context(), caller, id, input)
	if err != nil {
		h.fail(w, "verify payment", err)
		return
	}
	h.logger.Info("payment verified", slog.String("number", payment.Number), slog.String("status", string(payment.Status)), slog.Int64("staff_id", caller.StaffID))
	httpx.JSON(w, http.StatusOK, payment)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	var domain *core.Error
	if !errors.As(err, &domain) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
