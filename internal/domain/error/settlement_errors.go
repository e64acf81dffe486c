package error

import "errors"

// Settlement domain errors.
var (
	// ErrInvalidPartialAmount is returned when the amount paid is not positive.
	ErrInvalidPartialAmount = errors.New("amount paid must be greater than zero")

	// ErrPaymentCoversBalance is returned when the amount paid is not less than the balance.
	// Callers should run a full settlement instead.
	ErrPaymentCoversBalance = errors.New("amount paid covers the full balance")

	// ErrNotPending is returned when a partial settlement targets a settled entry.
	ErrNotPending = errors.New("transaction is not pending")

	// ErrMissingEditor is returned when an audited edit has no editor identity.
	ErrMissingEditor = errors.New("editor is required")
)

// SettlementErrorCode defines error codes for settlement errors.
// Format: STL-XXYYYY where XX is category and YYYY is specific error.
type SettlementErrorCode string

const (
	// Validation errors (01XXXX)
	ErrCodeInvalidPartialAmount SettlementErrorCode = "STL-010001"
	ErrCodePaymentCoversBalance SettlementErrorCode = "STL-010002"
	ErrCodeNotPending           SettlementErrorCode = "STL-010003"
	ErrCodeMissingEditor        SettlementErrorCode = "STL-010004"

	// Sync errors (02XXXX)
	ErrCodeSettlementFailed SettlementErrorCode = "STL-020001"
)

// SettlementError represents a settlement error with code and message.
type SettlementError struct {
	Code    SettlementErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *SettlementError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *SettlementError) Unwrap() error {
	return e.Err
}

// NewSettlementError creates a new SettlementError with the given code and message.
func NewSettlementError(code SettlementErrorCode, message string, err error) *SettlementError {
	return &SettlementError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
