package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Config{
		MaxAttempts:  5,
		InitialDelay: time.Millisecond,
	}, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestExhaustsAttempts(t *testing.T) {
	boom := errors.New("persistent")
	attempts := 0
	err := Do(context.Background(), Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
	}, func() error {
		attempts++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, attempts)
}

func TestNonRetryableErrorStopsImmediately(t *testing.T) {
	retryable := errors.New("retryable")
	fatal := errors.New("fatal")

	attempts := 0
	err := Do(context.Background(), Config{
		MaxAttempts:     5,
		InitialDelay:    time.Millisecond,
		RetryableErrors: []error{retryable},
	}, func() error {
		attempts++
		return fatal
	})

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, attempts)
}

func TestContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, Config{MaxAttempts: 3}, func() error {
		t.Fatal("operation must not run after cancellation")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
