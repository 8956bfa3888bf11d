package pricetiers

import "time"

// PriceTier is a named multiplier applied to product base prices.
type PriceTier struct {
	ID         int64     `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Multiplier string    `json:"multiplier"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type TierForm struct {
	Code       string `json:"code" validate:"required,max=32"`
	Name       string `json:"name" validate:"required,max=120"`
	Multiplier string `json:"multiplier" validate:"required,max=20"`
}
