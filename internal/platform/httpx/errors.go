// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/hairline-erp/hairline/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	msg := shared.StaffMessage(err)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", msg)
	case errors.Is(err, shared.ErrValidation):
		ProblemWithFields(w, http.StatusUnprocessableEntity, "Validation Failed", msg, shared.FieldErrors(err))
	case errors.Is(err, shared.ErrAlreadyConfirmed):
		Problem(w, http.StatusConflict, "Already Confirmed", msg)
	case errors.Is(err, shared.ErrDuplicateInvoice):
		Problem(w, http.StatusConflict, "Duplicate Invoice", msg)
	case errors.Is(err, shared.ErrDocumentLocked):
		Problem(w, http.StatusConflict, "Document Locked", msg)
	case errors.Is(err, shared.ErrInvalidState):
		Problem(w, http.StatusConflict, "Invalid State", msg)
	case errors.Is(err, shared.ErrInsufficientStock):
		Problem(w, http.StatusConflict, "Insufficient Stock", msg)
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", msg)
	case errors.Is(err, shared.ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", msg)
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", msg)
	}
}
