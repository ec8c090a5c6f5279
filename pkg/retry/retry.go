package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Config controls Do. Zero values fall back to 3 attempts starting at
// 100ms, doubling up to 10s.
type Config struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	Multiplier      float64
	JitterFraction  float64
	RetryableErrors []error
	Logger          *zap.Logger
}

func (cfg Config) withDefaults() Config {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 10 * time.Second
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2.0
	}
	return cfg
}

// Do runs operation until it succeeds, a non-retryable error occurs, the
// attempt budget is spent, or the context ends. An empty RetryableErrors
// list treats every error as retryable.
func Do(ctx context.Context, cfg Config, operation func() error) error {
	cfg = cfg.withDefaults()

	var err error
	for attempt := 1; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err = operation(); err == nil {
			if attempt > 1 && cfg.Logger != nil {
				cfg.Logger.Info("Operation succeeded after retry",
					zap.Int("attempt", attempt),
				)
			}
			return nil
		}

		if !cfg.retryable(err) || attempt == cfg.MaxAttempts {
			return err
		}

		delay := cfg.backoff(attempt)
		if cfg.Logger != nil {
			cfg.Logger.Warn("Operation failed, retrying",
				zap.Error(err),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", cfg.MaxAttempts),
				zap.Duration("delay", delay),
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (cfg Config) retryable(err error) bool {
	if len(cfg.RetryableErrors) == 0 {
		return true
	}
	for _, candidate := range cfg.RetryableErrors {
		if errors.Is(err, candidate) {
			return true
		}
	}
	return false
}

// backoff returns the delay before the next attempt: exponential growth
// capped at MaxDelay, with symmetric jitter.
func (cfg Config) backoff(attempt int) time.Duration {
	delay := cfg.InitialDelay
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay >= cfg.MaxDelay {
			delay = cfg.MaxDelay
			break
		}
	}

	if cfg.JitterFraction > 0 {
		jitter := (rand.Float64()*2 - 1) * cfg.JitterFraction * float64(delay)
		delay += time.Duration(jitter)
	}
	return delay
}
