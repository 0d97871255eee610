package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/benx421/payment-gateway/checkout/internal/service"
)

// ErrorResponse is the JSON body of every non-redirect error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body) //nolint:errcheck // Nothing useful to do if write fails
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// httpStatusForCode maps service error codes onto HTTP statuses
func httpStatusForCode(code string) int {
	switch code {
	case service.ErrCodeValidation:
		return http.StatusBadRequest
	case service.ErrCodeDuplicateTransaction:
		return http.StatusConflict
	case service.ErrCodeNotFound:
		return http.StatusNotFound
	case service.ErrCodeUntrustedCallback:
		return http.StatusUnauthorized
	case service.ErrCodeLookupFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func extractServiceError(err error) *service.ServiceError {
	var svcErr *service.ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return nil
}
