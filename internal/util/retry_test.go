package util

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryWithContext_SuccessImmediate(t *testing.T) {
	result, err := RetryWithContext(context.Background(), 3, func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, result)
}

func TestRetryWithContext_SuccessAfterRetries(t *testing.T) {
	calls := 0
	result, err := RetryWithContext(context.Background(), 3, func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 99, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 99, result)
	assert.Equal(t, 3, calls)
}

func TestRetryWithContext_PersistentFailure(t *testing.T) {
	calls := 0
	_, err := RetryWithContext(context.Background(), 2, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("permanent")
	})
	assert.EqualError(t, err, "permanent")
	assert.Equal(t, 2, calls)
}

func TestRetryWithContext_MaxTriesZeroOrNegative(t *testing.T) {
	for _, tries := range []int{0, -1} {
		calls := 0
		_, err := RetryWithContext(context.Background(), tries, func(context.Context) (int, error) {
			calls++
			return 0, errors.New("fail")
		})
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	}
}

func TestRetryWithContext_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := RetryWithContext(ctx, 3, func(context.Context) (int, error) {
		calls++
		return 1, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestRetryWithContext_ContextDeadlineExceeded(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	calls := 0
	_, err := RetryWithContext(ctx, 5, func(ctx context.Context) (int, error) {
		calls++
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)
}

func TestRetryErrWithContext(t *testing.T) {
	calls := 0
	err := RetryErrWithContext(context.Background(), 3, func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	err = RetryErrWithContext(context.Background(), 2, func(context.Context) error {
		return errors.New("permanent")
	})
	assert.EqualError(t, err, "permanent")
}
