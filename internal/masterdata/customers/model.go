package customers

import "time"

type Customer struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Country     string    `json:"country"`
	Email       *string   `json:"email,omitempty"`
	PriceTierID *int64    `json:"price_tier_id,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
