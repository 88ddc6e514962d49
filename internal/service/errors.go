package service

import (
	"fmt"
	"strings"
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

// Common error codes
const (
	ErrCodeTransactionNotFound = "transaction_not_found"
	ErrCodeAccountNotFound     = "account_not_found"
	ErrCodeInvalidState        = "invalid_state"
	ErrCodeInvalidCode         = "invalid_code"
	ErrCodeSettlementFailed    = "settlement_failed"
	ErrCodeInternalError       = "internal_error"
)

// ValidationError reports every constraint a create request violated. All
// checks run before the error is built; nothing short-circuits on the first
// violation.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}
