package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBusyError(t *testing.T) {
	t.Parallel()

	busy := []string{
		"database is locked",
		"database table is locked",
		"SQLITE_BUSY",
		"SQLITE_LOCKED",
		"error (5): database busy",
		"error (6): database locked",
	}
	for _, msg := range busy {
		assert.True(t, isBusyError(errors.New(msg)), msg)
	}

	assert.False(t, isBusyError(nil))
	assert.False(t, isBusyError(errors.New("connection refused")))
	assert.False(t, isBusyError(errors.New("UNIQUE constraint failed: progress.user_id, progress.book_id")))
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	assert.GreaterOrEqual(t, backoff(0), retryBaseDelay)
	assert.LessOrEqual(t, backoff(0), retryBaseDelay+retryBaseDelay/4)
	assert.GreaterOrEqual(t, backoff(2), 4*retryBaseDelay)
	assert.Equal(t, retryMaxDelay, backoff(10))
	assert.Equal(t, retryMaxDelay, backoff(70))
}

func countingFn(failures int, failErr error) (func() (int, error), *int) {
	calls := 0
	return func() (int, error) {
		calls++
		if calls <= failures {
			return 0, failErr
		}
		return calls, nil
	}, &calls
}

func TestRetry(t *testing.T) {
	t.Parallel()
	locked := errors.New("database is locked")

	t.Run("first attempt", func(t *testing.T) {
		fn, calls := countingFn(0, nil)
		v, err := retry(context.Background(), 5, fn)
		require.NoError(t, err)
		assert.Equal(t, 1, v)
		assert.Equal(t, 1, *calls)
	})

	t.Run("busy then success", func(t *testing.T) {
		fn, calls := countingFn(2, locked)
		v, err := retry(context.Background(), 5, fn)
		require.NoError(t, err)
		assert.Equal(t, 3, v)
		assert.Equal(t, 3, *calls)
	})

	t.Run("other errors are not retried", func(t *testing.T) {
		fn, calls := countingFn(5, errors.New("connection refused"))
		_, err := retry(context.Background(), 5, fn)
		require.EqualError(t, err, "connection refused")
		assert.Equal(t, 1, *calls)
	})

	t.Run("gives up after maxRetries", func(t *testing.T) {
		fn, calls := countingFn(100, locked)
		_, err := retry(context.Background(), 2, fn)
		require.ErrorIs(t, err, locked)
		assert.Equal(t, 3, *calls)
	})

	t.Run("zero retries", func(t *testing.T) {
		fn, calls := countingFn(100, locked)
		_, err := retry(context.Background(), 0, fn)
		require.ErrorIs(t, err, locked)
		assert.Equal(t, 1, *calls)
	})

	t.Run("context canceled while waiting", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		fn, calls := countingFn(100, locked)
		_, err := retry(ctx, 10, fn)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.GreaterOrEqual(t, *calls, 1)
		assert.Less(t, *calls, 10)
	})
}
