// Package error defines domain-specific errors for the operations ledger.
package error

import "errors"

// Transaction domain errors.
var (
	// ErrTransactionNotFound is returned when a transaction is not found in the ledger.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrEmptyBatch is returned when a batch add carries no entries.
	ErrEmptyBatch = errors.New("batch cannot be empty")

	// ErrPendingRequiresDeferred is returned when a pending entry is not paid by deferred payment.
	ErrPendingRequiresDeferred = errors.New("pending entries must use deferred payment")

	// ErrInvalidPaymentMethod is returned when the payment method is unknown.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// ErrInvalidTransactionValue is returned when the value is negative.
	ErrInvalidTransactionValue = errors.New("invalid transaction value")

	// ErrMissingItem is returned when an entry has no item name.
	ErrMissingItem = errors.New("item is required")

	// ErrEmptyPatch is returned when an update carries no mutable field.
	ErrEmptyPatch = errors.New("update carries no changes")

	// ErrEmptyTransactionIDs is returned when an empty list of transaction IDs is provided.
	ErrEmptyTransactionIDs = errors.New("transaction IDs list cannot be empty")

	// ErrInvalidClearPeriod is returned when the clear period is unknown.
	ErrInvalidClearPeriod = errors.New("period must be: DAY, WEEK, MONTH or ALL")

	// ErrWrongTenant is returned when an operation targets a tenant other than the store's.
	ErrWrongTenant = errors.New("transaction belongs to another tenant")
)

// TransactionErrorCode defines error codes for transaction errors.
// Format: TXN-XXYYYY where XX is category and YYYY is specific error.
type TransactionErrorCode string

const (
	// Validation errors (01XXXX)
	ErrCodeTransactionNotFound       TransactionErrorCode = "TXN-010001"
	ErrCodeEmptyBatch                TransactionErrorCode = "TXN-010002"
	ErrCodePendingRequiresDeferred   TransactionErrorCode = "TXN-010003"
	ErrCodeInvalidPaymentMethod      TransactionErrorCode = "TXN-010004"
	ErrCodeInvalidTransactionValue   TransactionErrorCode = "TXN-010005"
	ErrCodeMissingItem               TransactionErrorCode = "TXN-010006"
	ErrCodeEmptyPatch                TransactionErrorCode = "TXN-010007"
	ErrCodeEmptyTransactionIDs       TransactionErrorCode = "TXN-010008"
	ErrCodeInvalidClearPeriod        TransactionErrorCode = "TXN-010009"
	ErrCodeWrongTenant               TransactionErrorCode = "TXN-010010"
	ErrCodeMissingTransactionFields  TransactionErrorCode = "TXN-010011"

	// Sync errors (02XXXX)
	ErrCodeTransactionSyncFailed TransactionErrorCode = "TXN-020001"
)

// TransactionError represents a transaction error with code and message.
type TransactionError struct {
	Code    TransactionErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *TransactionError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *TransactionError) Unwrap() error {
	return e.Err
}

// NewTransactionError creates a new TransactionError with the given code and message.
func NewTransactionError(code TransactionErrorCode, message string, err error) *TransactionError {
	return &TransactionError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
