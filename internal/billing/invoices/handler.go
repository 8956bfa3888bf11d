package invoices

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hairline-erp/hairline/internal/platform/httpx"
	"github.com/hairline-erp/hairline/internal/rbac"
	salesshared "github.com/hairline-erp/hairline/internal/sales/shared"
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
		r.Use(h.rbac.RequireAny(core.PermInvoiceView, core.PermInvoiceGenerate))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(core.PermInvoiceGenerate))
		r.Post("/mark-overdue", h.MarkOverdue)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filters := salesshared.FiltersFromRequest(r)
	invoices, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Paged[Invoice]{Data: invoices, Pagination: core.NewPagination(filters.Page, filters.Limit, total)})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) MarkOverdue(w http.ResponseWriter, r *http.Request) {
	numbers, err := h.service.MarkOverdue(r.Context())
	if err != nil {
		h.logger.Error("mark overdue", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"marked": len(numbers), "numbers": numbers})
}
