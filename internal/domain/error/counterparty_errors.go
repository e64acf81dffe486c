package error

import "errors"

// Counterparty domain errors.
var (
	// ErrCounterpartyNotFound is returned when a counterparty is not found.
	ErrCounterpartyNotFound = errors.New("counterparty not found")

	// ErrMissingCounterpartyName is returned when the name is empty.
	ErrMissingCounterpartyName = errors.New("counterparty name is required")

	// ErrCounterpartyNameTooLong is returned when the name exceeds the maximum length.
	ErrCounterpartyNameTooLong = errors.New("counterparty name too long")
)

// CounterpartyErrorCode defines error codes for counterparty errors.
// Format: CPT-XXYYYY where XX is category and YYYY is specific error.
type CounterpartyErrorCode string

const (
	// Validation errors (01XXXX)
	ErrCodeCounterpartyNotFound    CounterpartyErrorCode = "CPT-010001"
	ErrCodeMissingCounterpartyName CounterpartyErrorCode = "CPT-010002"
	ErrCodeCounterpartyNameTooLong CounterpartyErrorCode = "CPT-010003"

	// Internal errors (99XXXX)
	ErrCodeCounterpartyInternalError CounterpartyErrorCode = "CPT-990001"
)

// CounterpartyError represents a counterparty error with code and message.
type CounterpartyError struct {
	Code    CounterpartyErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *CounterpartyError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *CounterpartyError) Unwrap() error {
	return e.Err
}

// NewCounterpartyError creates a new CounterpartyError with the given code and message.
func NewCounterpartyError(code CounterpartyErrorCode, message string, err error) *CounterpartyError {
	return &CounterpartyError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
