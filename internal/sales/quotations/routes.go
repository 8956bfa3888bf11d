package quotations

import (
	"github.com/go-chi/chi/v5"

	core "github.com/hairline-erp/hairline/internal/shared"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(core.PermQuotationView, core.PermQuotationEdit))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(core.PermQuotationCreate))
		r.Post("/", h.Create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(core.PermQuotationEdit))
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/price-tier", h.ChangePriceTier)
		r.Post("/{id}/send", h.Send)
		r.Post("/{id}/revise", h.Revise)
		r.Post("/{id}/duplicate", h.Duplicate)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(core.PermQuotationApprove))
		r.Post("/{id}/approve", h.Approve)
		r.Post("/{id}/reject", h.Reject)
	})
}
