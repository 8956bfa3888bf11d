package quotations

import (
	salesshared "github.com/hairline-erp/hairline/internal/sales/shared"
)

type CreateQuotationRequest struct {
	CustomerID  int64                   `json:"customer_id" validate:"required,gt=0"`
	PriceTierID *int64                  `json:"price_tier_id,omitempty" validate:"omitempty,gt=0"`
	Lines       []salesshared.LineInput `json:"lines" validate:"required,min=1,dive"`

	salesshared.Fees

	PaymentMethod string `json:"payment_method" validate:"max=100"`
	Notes         string `json:"notes" validate:"max=2000"`
}

// UpdateQuotationRequest replaces the non-nil parts. Lines, when present, are re-priced.
type UpdateQuotationRequest struct {
	CustomerID    *int64                  `json:"customer_id,omitempty" validate:"omitempty,gt=0"`
	PriceTierID   *int64                  `json:"price_tier_id,omitempty" validate:"omitempty,gt=0"`
	Lines         []salesshared.LineInput `json:"lines,omitempty" validate:"omitempty,min=1,dive"`
	Fees          *salesshared.Fees       `json:"fees,omitempty"`
	PaymentMethod *string                 `json:"payment_method,omitempty" validate:"omitempty,max=100"`
	Notes         *string                 `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type ChangePriceTierRequest struct {
	PriceTierID *int64 `json:"price_tier_id" validate:"omitempty,gt=0"`
}

type RejectQuotationRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}
