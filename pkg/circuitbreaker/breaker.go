package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

type Config struct {
	// MaxRequests caps concurrent probes while half-open.
	MaxRequests uint32
	// Interval resets the closed-state failure streak; zero keeps the
	// streak until a success clears it.
	Interval time.Duration
	// Timeout is the open-state cool-off before probing resumes.
	Timeout          time.Duration
	FailureThreshold uint32
	SuccessThreshold uint32
	OnStateChange    func(name string, from State, to State)
	Logger           *zap.Logger
}

// CircuitBreaker fails fast once a downstream dependency keeps erroring,
// then probes it with a bounded number of requests before closing again.
type CircuitBreaker struct {
	name string
	cfg  Config

	mu        sync.Mutex
	state     State
	epoch     uint64
	inFlight  uint32
	failures  uint32
	successes uint32
	deadline  time.Time
}

func NewCircuitBreaker(name string, cfg Config) *CircuitBreaker {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold == 0 {
		cfg.SuccessThreshold = 2
	}

	cb := &CircuitBreaker{name: name, cfg: cfg}
	if cfg.Interval > 0 {
		cb.deadline = time.Now().Add(cfg.Interval)
	}
	return cb
}

// Execute runs fn unless the breaker rejects the request. A panic counts
// as a failure and is re-raised.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	epoch, err := cb.admit(time.Now())
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			cb.settle(epoch, false)
			panic(r)
		}
	}()

	err = fn()
	cb.settle(epoch, err == nil)
	return err
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.advance(time.Now())
	return cb.state
}

func (cb *CircuitBreaker) admit(now time.Time) (uint64, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.advance(now)

	switch cb.state {
	case StateOpen:
		return cb.epoch, ErrCircuitOpen
	case StateHalfOpen:
		if cb.inFlight >= cb.cfg.MaxRequests {
			return cb.epoch, ErrTooManyRequests
		}
	}

	cb.inFlight++
	return cb.epoch, nil
}

// settle records a request outcome. Results from before the last state
// change are discarded; the epoch changed underneath them.
func (cb *CircuitBreaker) settle(epoch uint64, success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()
	cb.advance(now)
	if epoch != cb.epoch {
		return
	}

	if cb.inFlight > 0 {
		cb.inFlight--
	}

	if success {
		cb.failures = 0
		cb.successes++
		if cb.state == StateHalfOpen && cb.successes >= cb.cfg.SuccessThreshold {
			cb.transition(StateClosed, now)
		}
		return
	}

	cb.successes = 0
	cb.failures++
	switch cb.state {
	case StateClosed:
		if cb.failures >= cb.cfg.FailureThreshold {
			cb.transition(StateOpen, now)
		}
	case StateHalfOpen:
		cb.transition(StateOpen, now)
	}
}

// advance applies time-driven transitions: open cools off into half-open,
// and a closed-state interval expiry forgets old failures.
func (cb *CircuitBreaker) advance(now time.Time) {
	switch cb.state {
	case StateOpen:
		if now.After(cb.deadline) {
			cb.transition(StateHalfOpen, now)
		}
	case StateClosed:
		if cb.cfg.Interval > 0 && now.After(cb.deadline) {
			cb.failures = 0
			cb.successes = 0
			cb.deadline = now.Add(cb.cfg.Interval)
		}
	}
}

func (cb *CircuitBreaker) transition(state State, now time.Time) {
	if cb.state == state {
		return
	}

	prev := cb.state
	cb.state = state
	cb.epoch++
	cb.inFlight = 0
	cb.failures = 0
	cb.successes = 0

	switch state {
	case StateOpen:
		cb.deadline = now.Add(cb.cfg.Timeout)
	case StateClosed:
		if cb.cfg.Interval > 0 {
			cb.deadline = now.Add(cb.cfg.Interval)
		} else {
			cb.deadline = time.Time{}
		}
	default:
		cb.deadline = time.Time{}
	}

	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.name, prev, state)
	}
	if cb.cfg.Logger != nil {
		cb.cfg.Logger.Info("Circuit breaker state changed",
			zap.String("name", cb.name),
			zap.String("from", prev.String()),
			zap.String("to", state.String()),
		)
	}
}
