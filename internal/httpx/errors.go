package httpx

import (
	"errors"
	"net/http"

	"github.com/TheAliBit/codinto-library/internal/auth"
	"github.com/TheAliBit/codinto-library/internal/book"
	"github.com/TheAliBit/codinto-library/internal/category"
	"github.com/TheAliBit/codinto-library/internal/notification"
	"github.com/TheAliBit/codinto-library/internal/request"
	"github.com/TheAliBit/codinto-library/internal/user"
)

// WriteDomainError maps the workflow error taxonomy onto HTTP statuses:
// validation 400, conflicts and double decisions 409, not-found 404,
// inventory exhaustion 409 with a retryable code, everything else 500.
func WriteDomainError(w http.ResponseWriter, err error) {
	var ve *request.ValidationError
	if errors.As(err, &ve) {
		var details []ErrorDetail
		if ve.Field != "" {
			details = []ErrorDetail{{Field: ve.Field, Message: ve.Reason}}
		}
		JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", ve.Error(), details)
		return
	}

	var ce *request.ConflictError
	if errors.As(err, &ce) {
		JSONError(w, http.StatusConflict, "CONFLICT", ce.Error(), nil)
		return
	}

	switch {
	case errors.Is(err, request.ErrInventoryUnavailable):
		// Retryable: the request stayed pending, the admin can decide
		// again once stock frees up.
		JSONError(w, http.StatusConflict, "INVENTORY_UNAVAILABLE", err.Error(), nil)
	case errors.Is(err, request.ErrInvalidState):
		JSONError(w, http.StatusConflict, "INVALID_STATE", err.Error(), nil)
	case errors.Is(err, request.ErrNotFound),
		errors.Is(err, book.ErrNotFound),
		errors.Is(err, category.ErrNotFound),
		errors.Is(err, notification.ErrNotFound),
		errors.Is(err, user.ErrNotFound):
		JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, user.ErrUsernameTaken):
		JSONError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, auth.ErrUnauthorized):
		JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials or token", nil)
	case errors.Is(err, auth.ErrPasswordTooShort):
		JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), []ErrorDetail{{Field: "password", Message: "too short"}})
	default:
		JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred", nil)
	}
}
