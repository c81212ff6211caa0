package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/quay/pagequery"
)

// Error codes reported in response bodies.
const (
	CodeInvalidSort = `invalid-sort`
	CodeBadRequest  = `bad-request`
	CodeNotFound    = `not-found`
	CodeMethod      = `method-not-allowed`
	CodeInternal    = `internal-error`
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Additional must be JSON serializable.
	Additional any `json:"additional,omitempty"`
}

// WriteError works like [http.Error] but writes an [ErrorResponse] as the
// body. The caller still needs to return from the handler.
func writeError(w http.ResponseWriter, r *ErrorResponse, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(r)
}

// ApiError reports err to the client, picking a status and code by the kind
// of error. Internal errors are logged and their details withheld.
func apiError(w http.ResponseWriter, r *http.Request, err error) {
	var usf *pagequery.UnknownSortFieldError
	switch {
	case errors.As(err, &usf):
		writeError(w, &ErrorResponse{
			Code:       CodeInvalidSort,
			Message:    "invalid sort parameter: " + usf.Field,
			Additional: map[string]string{"field": usf.Field},
		}, http.StatusBadRequest)
	case errors.Is(err, pagequery.ErrInvalid):
		writeError(w, &ErrorResponse{
			Code:    CodeBadRequest,
			Message: err.Error(),
		}, http.StatusBadRequest)
	case errors.Is(err, pagequery.ErrPrecondition):
		writeError(w, &ErrorResponse{
			Code:    CodeNotFound,
			Message: err.Error(),
		}, http.StatusNotFound)
	default:
		slog.ErrorContext(r.Context(), "request failed", "reason", err)
		writeError(w, &ErrorResponse{
			Code:    CodeInternal,
			Message: http.StatusText(http.StatusInternalServerError),
		}, http.StatusInternalServerError)
	}
}
