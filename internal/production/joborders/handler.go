package joborders

import (
	"errors"
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
		r.Use(h.rbac.RequireAny(core.PermJobOrderView, core.PermJobOrderEdit))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(core.PermJobOrderEdit))
		r.Post("/{id}/progress", h.UpdateProgress)
		r.Post("/{id}/duplicate", h.Duplicate)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filters := salesshared.FiltersFromRequest(r)
	jobs, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list job orders", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Paged[JobOrder]{Data: jobs, Pagination: core.NewPagination(filters.Page, filters.Limit, total)})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	jo, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, jo)
}

func (h *Handler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input ProgressInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	caller, _ := core.CallerFromContext(r.Context())
	jo, err := h.service.UpdateProgress(r.Context(), caller, id, input)
	if err != nil {
		h.fail(w, "update job order progress", err)
		return
	}
	httpx.JSON(w, http.StatusOK, jo)
}

func (h *Handler) Duplicate(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	caller, _ := core.CallerFromContext(r.Context())
	jo, err := h.service.Duplicate(r.Context(), caller, id)
	if err != nil {
		h.fail(w, "duplicate job order", err)
		return
	}
	h.logger.Info("job order duplicated", slog.String("number", jo.Number), slog.Int64("source_id", id))
	httpx.JSON(w, http.StatusCreated, jo)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	var domain *core.Error
	if !errors.As(err, &domain) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
