package products

import (
	"strings"

	core "github.com/hairline-erp/hairline/internal/shared"
)

func (s *Service) validate(form ProductForm) error {
	if err := core.Validate(form); err != nil {
		return err
	}
	if strings.TrimSpace(form.SKU) == "" || strings.TrimSpace(form.Name) == "" {
		return core.Validation("Product SKU and name are required.")
	}
	if !form.BasePrice.Equal(form.BasePrice.Round(2)) {
		return core.ValidationFields(map[string]string{"base_price": "must have at most 2 decimal places"})
	}
	return nil
}
