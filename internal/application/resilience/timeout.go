package resilience

import (
	"context"
	"errors"
	"time"

	domainerror "github.com/opsledger/backend/internal/domain/error"
)

// ErrTimedOut is the cause carried by a RemoteError produced by WithTimeout.
var ErrTimedOut = errors.New("the server took too long to respond")

type result[T any] struct {
	value T
	err   error
}

// WithTimeout runs fn and stops waiting for it after timeout. The call itself
// is not cancelled: it keeps running detached from ctx and a late result is
// dropped. A non-positive timeout waits for fn to finish.
func WithTimeout[T any](ctx context.Context, op string, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}

	done := make(chan result[T], 1)
	detached := context.WithoutCancel(ctx)
	go func() {
		v, err := fn(detached)
		done <- result[T]{value: v, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var zero T
	select {
	case r := <-done:
		return r.value, r.err
	case <-timer.C:
		return zero, domainerror.NewRemoteError(domainerror.RemoteKindTimeout, op, ErrTimedOut)
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
