package pricetiers

import (
	"strings"

	"github.com/shopspring/decimal"

	core "github.com/hairline-erp/hairline/internal/shared"
)

func (s *Service) validate(form TierForm) error {
	if err := core.Validate(form); err != nil {
		return err
	}
	m, err := decimal.NewFromString(strings.TrimSpace(form.Multiplier))
	if err != nil || !m.IsPositive() {
		return core.ValidationFields(map[string]string{"multiplier": "must be a positive decimal such as 0.85"})
	}
	return nil
}
