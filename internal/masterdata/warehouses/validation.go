package warehouses

import (
	"strings"

	core "github.com/hairline-erp/hairline/internal/shared"
)

func validateForm(form WarehouseForm) error {
	if err := core.Validate(form); err != nil {
		return err
	}
	if strings.ContainsAny(form.Code, " \t") {
		return core.ValidationFields(map[string]string{"code": "must not contain spaces"})
	}
	return nil
}
