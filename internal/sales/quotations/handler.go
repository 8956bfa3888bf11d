package quotations

import (
	"context"
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
	quotations, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list quotations", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Paged[Quotation]{Data: quotations, Pagination: core.NewPagination(filters.Page, filters.Limit, total)})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	quotation, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quotation)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateQuotationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	caller, _ := core.CallerFromContext(r.Context())
	quotation, err := h.service.Create(r.Context(), caller, req)
	if err != nil {
		h.respond(w, "create quotation", err)
		return
	}
	h.logger.Info("quotation created", slog.String("number", quotation.Number), slog.Int64("staff_id", caller.StaffID))
	httpx.JSON(w, http.StatusCreated, quotation)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuotationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.act(w, r, "update quotation", func(ctx context.Context, caller core.Caller, id int64) (Quotation, error) {
		return h.service.Update(ctx, caller, id, req)
	})
}

func (h *Handler) ChangePriceTier(w http.ResponseWriter, r *http.Request) {
	var req ChangePriceTierRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.act(w, r, "change quotation tier", func(ctx context.Context, caller core.Caller, id int64) (Quotation, error) {
		return h.service.ChangePriceTier(ctx, caller, id, req.PriceTierID)
	})
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "send quotation", h.service.Send)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "approve quotation", h.service.Approve)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	var req RejectQuotationRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.act(w, r, "reject quotation", func(ctx context.Context, caller core.Caller, id int64) (Quotation, error) {
		return h.service.Reject(ctx, caller, id, req.Reason)
	})
}

func (h *Handler) Revise(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "revise quotation", h.service.Revise)
}

func (h *Handler) Duplicate(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	caller, _ := core.CallerFromContext(r.Context())
	quotation, err := h.service.Duplicate(r.Context(), caller, id)
	if err != nil {
		h.respond(w, "duplicate quotation", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, quotation)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	caller, _ := core.CallerFromContext(r.Context())
	if err := h.service.Delete(r.Context(), caller, id); err != nil {
		h.respond(w, "delete quotation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) act(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, core.Caller, int64) (Quotation, error)) {
	id, err := httpx.ParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	caller, _ := core.CallerFromContext(r.Context())
	quotation, err := fn(r.Context(), caller, id)
	if err != nil {
		h.respond(w, op, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quotation)
}

func (h *Handler) respond(w http.ResponseWriter, op string, err error) {
	var domain *core.Error
	if !errors.As(err, &domain) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
