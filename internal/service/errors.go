package service

import (
	"errors"
	"fmt"
)

// ServiceError represents a business logic error with a code
type ServiceError struct {
	Err     error
	Message string
	Code    string
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Error codes surfaced to callers and logs
const (
	ErrCodeValidation           = "validation_error"
	ErrCodeDuplicateTransaction = "duplicate_transaction"
	ErrCodeGatewayError         = "gateway_error"
	ErrCodeUntrustedCallback    = "untrusted_callback"
	ErrCodeLookupFailure        = "lookup_failure"
	ErrCodePersistenceWarning   = "persistence_warning"
	ErrCodeNotFound             = "not_found"
	ErrCodeInternalError        = "internal_error"
)

// HasCode reports whether err carries a ServiceError with the given code
func HasCode(err error, code string) bool {
	var svcErr *ServiceError
	return errors.As(err, &svcErr) && svcErr.Code == code
}
