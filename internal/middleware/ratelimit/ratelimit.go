package ratelimit

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Config struct {
	MaxRequestsPerMinute int
	WindowDuration       time.Duration
	Logger               *zap.Logger
}

type window struct {
	start time.Time
	count int
}

// RateLimiter counts requests per key in fixed windows. Authenticated
// traffic is keyed by user id so one tenant cannot starve another behind
// a shared NAT; everything else is keyed by IP.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
	logger  *zap.Logger
	done    chan struct{}
}

func New(cfg Config) *RateLimiter {
	if cfg.MaxRequestsPerMinute <= 0 {
		cfg.MaxRequestsPerMinute = 60
	}
	if cfg.WindowDuration <= 0 {
		cfg.WindowDuration = time.Minute
	}

	rl := &RateLimiter{
		windows: make(map[string]*window),
		limit:   cfg.MaxRequestsPerMinute,
		period:  cfg.WindowDuration,
		logger:  cfg.Logger,
		done:    make(chan struct{}),
	}

	go rl.janitor()

	return rl
}

func (rl *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.IP()
		if userID, ok := c.Locals("user_id").(int64); ok {
			key = "user:" + strconv.FormatInt(userID, 10)
		}

		if !rl.allow(key) {
			if rl.logger != nil {
				rl.logger.Warn("Rate limit exceeded",
					zap.String("key", key),
					zap.String("path", c.Path()),
				)
			}
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Rate limit exceeded. Please try again later.",
			})
		}

		return c.Next()
	}
}

func (rl *RateLimiter) allow(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.period {
		rl.windows[key] = &window{start: now, count: 1}
		return true
	}

	if w.count >= rl.limit {
		return false
	}
	w.count++
	return true
}

// janitor drops windows idle long enough that they can no longer affect
// a limit decision.
func (rl *RateLimiter) janitor() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-2 * rl.period)
			rl.mu.Lock()
			for key, w := range rl.windows {
				if w.start.Before(cutoff) {
					delete(rl.windows, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *RateLimiter) Stop() {
	close(rl.done)
}
