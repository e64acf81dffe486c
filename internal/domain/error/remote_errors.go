package error

import (
	"errors"
	"fmt"
)

// RemoteErrorKind classifies failures of calls to the remote store.
type RemoteErrorKind string

const (
	// RemoteKindNetwork covers connectivity failures: refused connections, DNS, broken pipes.
	RemoteKindNetwork RemoteErrorKind = "NETWORK"
	// RemoteKindTimeout means the operation exceeded its deadline.
	RemoteKindTimeout RemoteErrorKind = "TIMEOUT"
	// RemoteKindServer is a 5xx-class failure of the remote store.
	RemoteKindServer RemoteErrorKind = "SERVER"
	// RemoteKindConflict is a uniqueness violation or a lost compare-and-set.
	RemoteKindConflict RemoteErrorKind = "CONFLICT"
	// RemoteKindUnknown is anything else.
	RemoteKindUnknown RemoteErrorKind = "UNKNOWN"
)

// Sentinel errors for errors.Is checks against a classified RemoteError.
var (
	ErrNetwork  = errors.New("network error")
	ErrTimeout  = errors.New("operation timed out")
	ErrServer   = errors.New("remote server error")
	ErrConflict = errors.New("conflicting write")
)

// User-visible messages. Transient failures are phrased as syncing, not failing.
const (
	MessageNetwork  = "Connection unstable. Still syncing, your data will be sent when the connection returns."
	MessageTimeout  = "Still syncing. The server is taking longer than usual to respond."
	MessageServer   = "The server is being adjusted. Please try again in a moment."
	MessageConflict = "This record was already saved or changed by someone else."
	MessageUnknown  = "Something went wrong. Please try again."
)

// RemoteError is a classified failure of a remote store call.
type RemoteError struct {
	Kind RemoteErrorKind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

// Unwrap returns the underlying error.
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels.
func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == RemoteKindNetwork
	case ErrTimeout:
		return e.Kind == RemoteKindTimeout
	case ErrServer:
		return e.Kind == RemoteKindServer
	case ErrConflict:
		return e.Kind == RemoteKindConflict
	}
	return false
}

// Retryable reports whether the failure is worth retrying with backoff.
func (e *RemoteError) Retryable() bool {
	switch e.Kind {
	case RemoteKindNetwork, RemoteKindTimeout, RemoteKindServer:
		return true
	}
	return false
}

// NewRemoteError creates a new RemoteError.
func NewRemoteError(kind RemoteErrorKind, op string, err error) *RemoteError {
	return &RemoteError{Kind: kind, Op: op, Err: err}
}

// IsRetryable reports whether err carries a retryable RemoteError.
func IsRetryable(err error) bool {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Retryable()
	}
	return false
}

// UserMessage translates any error into a short human-readable message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var re *RemoteError
	if errors.As(err, &re) {
		switch re.Kind {
		case RemoteKindNetwork:
			return MessageNetwork
		case RemoteKindTimeout:
			return MessageTimeout
		case RemoteKindServer:
			return MessageServer
		case RemoteKindConflict:
			return MessageConflict
		}
		return MessageUnknown
	}

	var txnErr *TransactionError
	if errors.As(err, &txnErr) {
		return txnErr.Message
	}
	var setErr *SettlementError
	if errors.As(err, &setErr) {
		return setErr.Message
	}
	var stockErr *StockError
	if errors.As(err, &stockErr) {
		return stockErr.Message
	}
	var cpErr *CounterpartyError
	if errors.As(err, &cpErr) {
		return cpErr.Message
	}
	switch {
	case errors.Is(err, ErrTransactionNotFound):
		return ErrTransactionNotFound.Error()
	case errors.Is(err, ErrCounterpartyNotFound):
		return ErrCounterpartyNotFound.Error()
	}
	return MessageUnknown
}
