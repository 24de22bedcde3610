package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"taxharvest/pkg/harvest"
)

// ErrorResponse represents an error API response with structured information.
type ErrorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	ErrorCode string `json:"error_code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// writeErrorResponse writes an error response. Structured errors choose their
// own HTTP status; fallbackStatus is used for anything else.
func writeErrorResponse(w http.ResponseWriter, r *http.Request, fallbackStatus int, err error) {
	response := ErrorResponse{
		Code:      fallbackStatus,
		Message:   err.Error(),
		RequestID: middleware.GetReqID(r.Context()),
	}

	var hErr *harvest.Error
	var fetchErr *harvest.FetchError
	switch {
	case errors.As(err, &hErr):
		response.ErrorCode = string(hErr.Code)
		response.Code = mapErrorCodeToHTTPStatus(hErr.Code)
	case errors.As(err, &fetchErr):
		response.ErrorCode = string(harvest.ErrCodeFetch)
		response.Code = http.StatusBadGateway
	}

	if lw, ok := w.(interface{ SetErrorMessage(string) }); ok {
		lw.SetErrorMessage(response.Message)
	}
	writeJSON(w, response.Code, response)
}

// mapErrorCodeToHTTPStatus maps error codes to HTTP status codes.
func mapErrorCodeToHTTPStatus(code harvest.ErrorCode) int {
	switch code {
	case harvest.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case harvest.ErrCodeNotFound:
		return http.StatusNotFound
	case harvest.ErrCodeFetch, harvest.ErrCodeDecode:
		return http.StatusBadGateway
	case harvest.ErrCodeDatabase, harvest.ErrCodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
