package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowWithinLimit(t *testing.T) {
	rl := New(Config{MaxRequestsPerMinute: 2, WindowDuration: time.Minute})
	defer rl.Stop()

	assert.True(t, rl.allow("user:1"))
	assert.True(t, rl.allow("user:1"))
	assert.False(t, rl.allow("user:1"))

	// Other keys have their own budget.
	assert.True(t, rl.allow("user:2"))
}

func TestWindowReset(t *testing.T) {
	rl := New(Config{MaxRequestsPerMinute: 1, WindowDuration: 10 * time.Millisecond})
	defer rl.Stop()

	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))

	time.Sleep(15 * time.Millisecond)
	assert.True(t, rl.allow("10.0.0.1"))
}
