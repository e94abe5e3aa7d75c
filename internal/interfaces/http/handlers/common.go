package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/turtacn/PatentSentry/pkg/errors"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// errorResponse maps err to a status and body. Errors without an application
// code are masked as internal errors.
func errorResponse(err error) (int, ErrorResponse) {
	var ae *errors.AppError
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError, ErrorResponse{
			Code:    string(errors.ErrCodeInternal),
			Message: errors.ErrCodeInternal.DefaultMessage(),
		}
	}
	return ae.HTTPStatus(), ErrorResponse{
		Code:    string(ae.Code),
		Message: ae.Message,
		Detail:  ae.Detail,
	}
}

// writeAppError maps application-level errors to HTTP status codes.
func writeAppError(w http.ResponseWriter, err error) {
	status, body := errorResponse(err)
	writeJSON(w, status, body)
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeAppError(w, errors.New(errors.ErrCodeBadRequest, message))
}
