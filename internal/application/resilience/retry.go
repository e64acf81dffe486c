package resilience

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// WithRetry runs fn until it succeeds, fails with a non-retryable error, or
// maxAttempts is reached. The delay starts at initialDelay and doubles after
// every failed attempt. Errors are classified with Wrap before the decision.
func WithRetry[T any](ctx context.Context, op string, maxAttempts int, initialDelay time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = initialDelay
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxInterval = initialDelay << min(maxAttempts, 16)

	attempt := 0
	operation := func() (T, error) {
		attempt++
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		err = Wrap(op, err)
		if !isRetryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	notify := func(err error, next time.Duration) {
		slog.WarnContext(ctx, "remote call failed, retrying",
			"op", op,
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"next_delay", next,
			"error", err,
		)
	}

	v, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(maxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify),
	)
	if err != nil {
		slog.ErrorContext(ctx, "remote call failed", "op", op, "attempts", attempt, "error", err)
		return v, Wrap(op, err)
	}
	return v, nil
}
