package orders

import (
	"errors"
	"log/slog"
	"net/http"

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

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filters := salesshared.FiltersFromRequest(r)
	orders, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list sales orders", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Paged[SalesOrder]{Data: orders, Pagination: core.NewPagination(filters.Page, filters.Limit, total)})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSalesOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	caller, _ := core.CallerFromContext(r.Context())
	order, err := h.service.Create(r.Context(), caller, req)
	if err != nil {
		h.fail(w, "create sales order", err)
		return
	}
	h.logger.Info("sales order created", slog.String("number", order.Number), slog.Int64("staff_id", caller.StaffID))
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateSalesOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	caller, _ := core.CallerFromContext(r.Context())
	order, err := h.service.Update(r.Context(), caller, id, req)
	if err != nil {
		h.fail(w, "update sales order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) ChangePriceTier(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req ChangePriceTierRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	caller, _ := core.CallerFromContext(r.Context())
	order, err := h.service.ChangePriceTier(r.Context(), caller, id, req.PriceTierID)
	if err != nil {
		h.fail(w, "change sales order tier", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	caller, _ := core.CallerFromContext(r.Context())
	if err := h.service.Delete(r.Context(), caller, id); err != nil {
		h.fail(w, "delete sales order", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	var domain *core.Error
	if !errors.As(err, &domain) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
