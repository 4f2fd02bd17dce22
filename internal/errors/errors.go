package errors

import (
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	// Ingestion errors
	InvalidFormat    ErrorCode = "invalid_format"
	MalformedRow     ErrorCode = "malformed_row"
	MissingField     ErrorCode = "missing_field"
	DuplicateInBatch ErrorCode = "duplicate_in_batch"

	// Transfer errors
	MissingFields     ErrorCode = "missing_fields"
	InvalidAmount     ErrorCode = "invalid_amount"
	AccountNotFound   ErrorCode = "account_not_found"
	InsufficientFunds ErrorCode = "insufficient_funds"
	LockTimeout       ErrorCode = "timeout"

	// Catch-all for unanticipated storage failures
	InternalError ErrorCode = "internal_error"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HTTPStatus maps the error code to the status an HTTP adapter should return.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case InvalidFormat, MalformedRow, MissingField, DuplicateInBatch, MissingFields, InvalidAmount:
		return http.StatusBadRequest
	case AccountNotFound:
		return http.StatusNotFound
	case InsufficientFunds:
		return http.StatusUnprocessableEntity
	case LockTimeout:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// Predefined errors for common cases. The message strings are part of the
// external contract and must not be reworded casually.
var (
	ErrInvalidFormat     = NewAppError(InvalidFormat, "Invalid CSV format. Expected headers: ID, Name, Balance.")
	ErrMissingFields     = NewAppError(MissingFields, "Please fill in all fields.")
	ErrInvalidAmount     = NewAppError(InvalidAmount, "Invalid amount.")
	ErrAmountNotPositive = NewAppError(InvalidAmount, "Amount must be greater than zero.")
	ErrAccountNotFound   = NewAppError(AccountNotFound, "Invalid account number.")
	ErrInsufficientFunds = NewAppError(InsufficientFunds, "Insufficient funds.")
	ErrLockTimeout       = NewAppError(LockTimeout, "timed out waiting for account lock")
)
