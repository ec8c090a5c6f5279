package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", Config{
		FailureThreshold: 3,
		Timeout:          time.Minute,
	})

	failing := errors.New("downstream unavailable")
	for i := 0; i < 3; i++ {
		err := cb.Execute(context.Background(), func() error { return failing })
		require.ErrorIs(t, err, failing)
	}

	assert.Equal(t, StateOpen, cb.State())

	err := cb.Execute(context.Background(), func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestSuccessResetsFailureStreak(t *testing.T) {
	cb := NewCircuitBreaker("test", Config{
		FailureThreshold: 3,
		Timeout:          time.Minute,
	})

	failing := errors.New("downstream unavailable")
	for i := 0; i < 2; i++ {
		_ = cb.Execute(context.Background(), func() error { return failing })
	}
	require.NoError(t, cb.Execute(context.Background(), func() error { return nil }))
	_ = cb.Execute(context.Background(), func() error { return failing })

	assert.Equal(t, StateClosed, cb.State())
}

func TestHalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker("test", Config{
		MaxRequests:      2,
		FailureThreshold: 1,
		SuccessThreshold: 2,
		Timeout:          10 * time.Millisecond,
	})

	_ = cb.Execute(context.Background(), func() error { return errors.New("boom") })
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateHalfOpen, cb.State())

	for i := 0; i < 2; i++ {
		require.NoError(t, cb.Execute(context.Background(), func() error { return nil }))
	}
	assert.Equal(t, StateClosed, cb.State())
}

func TestStateChangeCallback(t *testing.T) {
	var transitions []State
	cb := NewCircuitBreaker("test", Config{
		FailureThreshold: 1,
		Timeout:          time.Minute,
		OnStateChange: func(_ string, _, to State) {
			transitions = append(transitions, to)
		},
	})

	_ = cb.Execute(context.Background(), func() error { return errors.New("boom") })
	assert.Equal(t, []State{StateOpen}, transitions)
}
