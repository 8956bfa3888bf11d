package documents

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hairline-erp/hairline/internal/platform/httpx"
	"github.com/hairline-erp/hairline/internal/rbac"
	core "github.com/hairline-erp/hairline/internal/shared"
)

var viewPermission = map[Kind]string{
	KindQuotation:  core.PermQuotationView,
	KindSalesOrder: core.PermSalesOrderView,
	KindJobOrder:   core.PermJobOrderView,
	KindInvoice:    core.PermInvoiceView,
}

type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(
		core.PermQuotationView, core.PermSalesOrderView, core.PermJobOrderView, core.PermInvoiceView,
	)).Get("/{kind}/{id}", h.Show)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	kind := Kind(chi.URLParam(r, "kind"))
	perm, ok := viewPermission[kind]
	if !ok {
		httpx.RespondError(w, core.NotFound("Document type", string(kind)))
		return
	}
	caller, _ := core.CallerFromContext(r.Context())
	if !caller.Can(perm) {
		httpx.RespondError(w, core.ErrForbidden)
		return
	}
	id, err := httpx.ParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	proj, err := h.service.Project(r.Context(), kind, id)
	if err != nil {
		var domain *core.Error
		if !errors.As(err, &domain) {
			h.logger.Error("project document", slog.String("kind", string(kind)), slog.Int64("id", id), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, proj)
}
