package inventory

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/hairline-erp/hairline/internal/platform/httpx"
	"github.com/hairline-erp/hairline/internal/rbac"
	"github.com/hairline-erp/hairline/internal/shared"
)

// Handler wires HTTP endpoints for inventory module.
type Handler struct {
	logger           *slog.Logger
	service          *Service
	rbac             rbac.Middleware
	defaultThreshold decimal.Decimal
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware, defaultThreshold decimal.Decimal) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac, defaultThreshold: defaultThreshold}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermInventoryView, shared.PermInventoryEdit))
		r.Get("/stock", h.handleStock)
		r.Get("/stock-card", h.handleStockCard)
		r.Get("/low-stock", h.handleLowStock)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermInventoryEdit))
		r.Post("/movements", h.handleMovement)
		r.Post("/adjustments", h.handleAdjustment)
		r.Post("/transfers", h.handleTransfer)
	})
}

func (h *Handler) handleStock(w http.ResponseWriter, r *http.Request) {
	warehouseID, productID, err := pairFromQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	qty, err := h.service.CurrentStock(r.Context(), warehouseID, productID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"warehouse_id": warehouseID, "product_id": productID, "quantity": qty})
}

func (h *Handler) handleStockCard(w http.ResponseWriter, r *http.Request) {
	warehouseID, productID, err := pairFromQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.service.StockCard(r.Context(), StockCardFilter{WarehouseID: warehouseID, ProductID: productID, Limit: limit})
	if err != nil {
		h.logger.Error("failed to get stock card", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": entries})
}

func (h *Handler) handleLowStock(w http.ResponseWriter, r *http.Request) {
	threshold := h.defaultThreshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			httpx.RespondError(w, shared.ValidationFields(map[string]string{"threshold": "must be a number"}))
			return
		}
		threshold = parsed
	}
	levels, err := h.service.LowStock(r.Context(), threshold)
	if err != nil {
		h.logger.Error("failed to list low stock", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"threshold": threshold, "data": levels})
}

func (h *Handler) handleMovement(w http.ResponseWriter, r *http.Request) {
	var input MovementInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if input.Type != MovementReceipt && input.Type != MovementIssue {
		httpx.RespondError(w, shared.ValidationFields(map[string]string{"movement_type": "must be receipt or issue; use the transfer and adjustment endpoints otherwise"}))
		return
	}
	m, err := h.service.Post(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
}

func (h *Handler) handleAdjustment(w http.ResponseWriter, r *http.Request) {
	var input AdjustmentInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	m, err := h.service.Adjust(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var input TransferInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.service.Transfer(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("stock transferred", slog.String("reference_id", res.ReferenceID), slog.Int64("product_id", input.ProductID))
	httpx.JSON(w, http.StatusCreated, res)
}

func pairFromQuery(r *http.Request) (int64, int64, error) {
	q := r.URL.Query()
	fields := map[string]string{}
	warehouseID, err := strconv.ParseInt(q.Get("warehouse_id"), 10, 64)
	if err != nil || warehouseID <= 0 {
		fields["warehouse_id"] = "is required"
	}
	productID, err := strconv.ParseInt(q.Get("product_id"), 10, 64)
	if err != nil || productID <= 0 {
		fields["product_id"] = "is required"
	}
	if len(fields) > 0 {
		return 0, 0, shared.ValidationFields(fields)
	}
	return warehouseID, productID, nil
}
