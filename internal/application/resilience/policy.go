package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/opsledger/backend/config"
	domainerror "github.com/opsledger/backend/internal/domain/error"
)

// Policy bundles the retry and timeout settings applied to every remote call.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Timeout      time.Duration
}

// NewPolicy builds a Policy from the sync configuration.
func NewPolicy(cfg config.SyncConfig) Policy {
	return Policy{
		MaxAttempts:  cfg.MaxAttempts,
		InitialDelay: cfg.InitialDelay,
		Timeout:      cfg.RemoteTimeout,
	}
}

// Do runs fn under the policy: each attempt is bounded by the timeout and
// retryable failures are retried with exponential backoff.
func Do[T any](ctx context.Context, p Policy, op string, fn func(context.Context) (T, error)) (T, error) {
	return WithRetry(ctx, op, p.MaxAttempts, p.InitialDelay, func(ctx context.Context) (T, error) {
		return WithTimeout(ctx, op, p.Timeout, fn)
	})
}

// Exec is Do for calls that return only an error.
func Exec(ctx context.Context, p Policy, op string, fn func(context.Context) error) error {
	_, err := Do(ctx, p, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func isRetryable(err error) bool {
	var re *domainerror.RemoteError
	if errors.As(err, &re) {
		return re.Retryable()
	}
	return false
}
