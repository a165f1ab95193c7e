package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/TheAliBit/codinto-library/internal/httpx"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeValid decodes the JSON body into dst and checks its validate tags.
// On failure it writes the error response and returns false.
func decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var details []httpx.ErrorDetail
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				details = append(details, httpx.ErrorDetail{Field: fe.Field(), Message: fe.Tag()})
			}
		}
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", details)
		return false
	}
	return true
}

func pagination(r *http.Request) (limit, offset int) {
	limit = 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
