package staff

import "time"

// Member is a staff account. PasswordHash is a bcrypt hash and never leaves the service.
type Member struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Permissions  []string  `json:"permissions"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CreateRequest struct {
	Email       string   `json:"email" validate:"required,email"`
	Name        string   `json:"name" validate:"required,max=120"`
	Role        string   `json:"role" validate:"required,oneof=admin sales production finance"`
	Permissions []string `json:"permissions"`
	Password    string   `json:"password" validate:"omitempty,min=8"`
}

type UpdateRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,max=120"`
	Role        *string  `json:"role,omitempty" validate:"omitempty,oneof=admin sales production finance"`
	Permissions []string `json:"permissions,omitempty"`
	IsActive    *bool    `json:"is_active,omitempty"`
	Password    *string  `json:"password,omitempty" validate:"omitempty,min=8"`
}
