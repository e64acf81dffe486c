package error

import "errors"

// Stock domain errors.
var (
	// ErrPoolNotFound is returned when the selling pool is not part of the configuration.
	ErrPoolNotFound = errors.New("inventory pool not found")

	// ErrInvalidQuantity is returned when a sold quantity is negative.
	ErrInvalidQuantity = errors.New("quantity cannot be negative")

	// ErrConfigurationNotFound is returned when a tenant has no configuration.
	ErrConfigurationNotFound = errors.New("configuration not found")
)

// StockErrorCode defines error codes for stock errors.
// Format: STK-XXYYYY where XX is category and YYYY is specific error.
type StockErrorCode string

const (
	// Validation errors (01XXXX)
	ErrCodePoolNotFound          StockErrorCode = "STK-010001"
	ErrCodeInvalidQuantity       StockErrorCode = "STK-010002"
	ErrCodeConfigurationNotFound StockErrorCode = "STK-010003"

	// Sync errors (02XXXX)
	ErrCodeStockSaveFailed StockErrorCode = "STK-020001"
)

// StockError represents a stock error with code and message.
type StockError struct {
	Code    StockErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *StockError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *StockError) Unwrap() error {
	return e.Err
}

// NewStockError creates a new StockError with the given code and message.
func NewStockError(code StockErrorCode, message string, err error) *StockError {
	return &StockError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
