package payments

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusVerified  Status = "verified"
	StatusRejected  Status = "rejected"
)

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Payment is a customer payment awaiting or past finance verification.
type Payment struct {
	ID              int64             `json:"id"`
	Number          string            `json:"number"`
	InvoiceID       int64             `json:"invoice_id"`
	Amount          decimal.Decimal   `json:"amount"`
	Method          string            `json:"method"`
	ProofImages     []string          `json:"proof_images"`
	Metadata        map[string]string `json:"metadata"`
	Status          Status            `json:"status"`
	SubmittedBy     int64             `json:"submitted_by"`
	SubmittedAt     time.Time         `json:"submitted_at"`
	VerifiedBy      *int64            `json:"verified_by,omitempty"`
	VerifiedAt      *time.Time        `json:"verified_at,omitempty"`
	Notes           string            `json:"notes"`
	RejectionReason *string           `json:"rejection_reason,omitempty"`
}

type SubmitInput struct {
	InvoiceID   int64             `json:"invoice_id" validate:"required,gt=0"`
	Amount      decimal.Decimal   `json:"amount" validate:"required,gt=0"`
	Method      string            `json:"method" validate:"required,max=100"`
	ProofImages []string          `json:"proof_images" validate:"required,min=1,dive,required,max=500"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Notes       string            `json:"notes" validate:"max=2000"`
}

type VerifyInput struct {
	Decision Decision `json:"decision" validate:"required,oneof=approve reject"`
	Reason   string   `json:"reason" validate:"max=1000"`
	Notes    string   `json:"notes" validate:"max=2000"`
}

type ListFilters struct {
	InvoiceID int64
	Status    string
	Page      int
	Limit     int
	Offset    int
}

// Notification is enqueued after a decision commits.
type Notification struct {
	PaymentID     int64  `json:"payment_id"`
	PaymentNumber string `json:"payment_number"`
	InvoiceID     int64  `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
	CustomerID    int64  `json:"customer_id"`
	Decision      string `json:"decision"`
	Amount        string `json:"amount"`
	InvoiceStatus string `json:"invoice_status"`
	Reason        string `json:"reason,omitempty"`
}
