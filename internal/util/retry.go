package util

import (
	"context"
	"errors"
)

// RetryWithContext calls fn up to maxTries times until it returns a nil error,
// or until ctx is done. If maxTries <= 0, it defaults to 1.
// Context errors returned by fn are not retried.
func RetryWithContext[T any](ctx context.Context, maxTries int, fn func(context.Context) (T, error)) (T, error) {
	if maxTries <= 0 {
		maxTries = 1
	}
	var lastErr error
	var zero T
	for i := 0; i < maxTries; i++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return zero, err
		}
		lastErr = err
	}
	return zero, lastErr
}

// RetryErrWithContext is RetryWithContext for functions without a result.
func RetryErrWithContext(ctx context.Context, maxTries int, fn func(context.Context) error) error {
	_, err := RetryWithContext(ctx, maxTries, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
