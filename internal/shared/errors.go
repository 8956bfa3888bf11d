package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState indicates an operation against a document in the wrong lifecycle state.
	ErrInvalidState = errors.New("invalid state")
	// ErrAlreadyConfirmed guards the sales order confirm transition.
	ErrAlreadyConfirmed = errors.New("already confirmed")
	// ErrDuplicateInvoice guards invoice generation for an order that already has one.
	ErrDuplicateInvoice = errors.New("duplicate invoice")
	// ErrInsufficientStock indicates a movement would exceed the derived stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrDocumentLocked indicates a mutation of an immutable document.
	ErrDocumentLocked = errors.New("document locked")
	// ErrForbidden indicates the caller lacks a permission.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized indicates no caller identity was supplied.
	ErrUnauthorized = errors.New("unauthorized")
)

// Error pairs a taxonomy kind with a message written for office staff.
type Error struct {
	Kind    error
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

// Unwrap exposes the kind so errors.Is works against the sentinels.
func (e *Error) Unwrap() error { return e.Kind }

// NewError builds an *Error of the given kind with a formatted message.
func NewError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing entity, e.g. NotFound("Sales order", 12).
func NotFound(entity string, id any) *Error {
	return NewError(ErrNotFound, "%s %v could not be found.", entity, id)
}

// InvalidState reports a lifecycle violation.
func InvalidState(format string, args ...any) *Error {
	return NewError(ErrInvalidState, format, args...)
}

// Validation reports malformed input.
func Validation(format string, args ...any) *Error {
	return NewError(ErrValidation, format, args...)
}

// ValidationFields reports malformed input with per-field detail.
func ValidationFields(fields map[string]string) *Error {
	return &Error{Kind: ErrValidation, Message: "Please correct the highlighted fields.", Fields: fields}
}

// Locked reports a mutation attempted on an immutable document.
func Locked(format string, args ...any) *Error {
	return NewError(ErrDocumentLocked, format, args...)
}

// AlreadyConfirmed reports a repeated confirm of the same sales order.
func AlreadyConfirmed(number string) *Error {
	return NewError(ErrAlreadyConfirmed, "Sales order %s is already confirmed; its job order and invoice already exist.", number)
}

// DuplicateInvoice reports an invoice that already exists for a sales order.
func DuplicateInvoice(number string) *Error {
	return NewError(ErrDuplicateInvoice, "An invoice for sales order %s has already been issued.", number)
}

// InsufficientStock names the product and how much is missing.
func InsufficientStock(product, warehouse, shortfall, unit string) *Error {
	return NewError(ErrInsufficientStock, "Not enough %s in %s: short by %s %s.", product, warehouse, shortfall, unit)
}

// FieldErrors extracts per-field messages from a validation error, if any.
func FieldErrors(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

// StaffMessage returns the user-facing text for err, hiding internal failures.
func StaffMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "The requested record could not be found."
	case errors.Is(err, ErrForbidden):
		return "You do not have permission to do this."
	case errors.Is(err, ErrUnauthorized):
		return "Please sign in again."
	}
	return "Something went wrong. Please try again or contact support."
}
