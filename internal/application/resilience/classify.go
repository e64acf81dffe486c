// Package resilience wraps remote store calls with classification, retry and timeout.
package resilience

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	domainerror "github.com/opsledger/backend/internal/domain/error"
)

// SQLSTATE codes and classes the ledger cares about.
const (
	sqlStateUniqueViolation = "23505"
	sqlStateQueryCanceled   = "57014"
)

var serverClasses = map[string]bool{
	"53": true, // insufficient resources
	"57": true, // operator intervention
	"58": true, // system error
	"XX": true, // internal error
}

// Classify maps an error to a remote failure kind.
func Classify(err error) domainerror.RemoteErrorKind {
	if err == nil {
		return domainerror.RemoteKindUnknown
	}

	var re *domainerror.RemoteError
	if errors.As(err, &re) {
		return re.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return domainerror.RemoteKindTimeout
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domainerror.RemoteKindConflict
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifySQLState(pgErr.Code)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return classifySQLState(string(pqErr.Code))
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return domainerror.RemoteKindTimeout
		}
		return domainerror.RemoteKindNetwork
	}
	if errors.Is(err, redis.ErrClosed) {
		return domainerror.RemoteKindNetwork
	}

	return classifyMessage(err.Error())
}

func classifySQLState(code string) domainerror.RemoteErrorKind {
	switch code {
	case sqlStateUniqueViolation:
		return domainerror.RemoteKindConflict
	case sqlStateQueryCanceled:
		return domainerror.RemoteKindTimeout
	}
	if len(code) < 2 {
		return domainerror.RemoteKindUnknown
	}
	class := code[:2]
	if class == "08" {
		return domainerror.RemoteKindNetwork
	}
	if serverClasses[class] {
		return domainerror.RemoteKindServer
	}
	return domainerror.RemoteKindUnknown
}

func classifyMessage(msg string) domainerror.RemoteErrorKind {
	msg = strings.ToLower(msg)
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded") ||
		strings.Contains(msg, "abort"):
		return domainerror.RemoteKindTimeout
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") || strings.Contains(msg, "network") ||
		strings.Contains(msg, "fetch") || strings.Contains(msg, "cors") ||
		strings.Contains(msg, "no such host"):
		return domainerror.RemoteKindNetwork
	case strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint"):
		return domainerror.RemoteKindConflict
	}
	return domainerror.RemoteKindUnknown
}

// Wrap classifies err and wraps it in a RemoteError when it is a recognised
// remote failure. Anything else is returned unchanged and treated as fatal.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var re *domainerror.RemoteError
	if errors.As(err, &re) {
		return err
	}
	kind := Classify(err)
	if kind == domainerror.RemoteKindUnknown {
		return err
	}
	return domainerror.NewRemoteError(kind, op, err)
}
