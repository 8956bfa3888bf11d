package customers

type CreateCustomerRequest struct {
	Code        string  `json:"code" validate:"required,max=50"`
	Name        string  `json:"name" validate:"required,max=200"`
	Country     string  `json:"country" validate:"omitempty,len=2"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	PriceTierID *int64  `json:"price_tier_id,omitempty" validate:"omitempty,gt=0"`
}

type UpdateCustomerRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Country     *string `json:"country,omitempty" validate:"omitempty,len=2"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	PriceTierID *int64  `json:"price_tier_id,omitempty" validate:"omitempty,gte=0"`
}
