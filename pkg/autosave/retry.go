package autosave

import (
	"context"
	"math"
	"time"
)

// RetryStrategy encapsulates the delay between attempts.
type RetryStrategy interface {
	// SleepDuration returns how long to wait before the next attempt.
	// The attempt index starts at 0, incrementing after each failure.
	SleepDuration(attempt int, err error) time.Duration
}

// NoDelayStrategy performs all retries immediately.
type NoDelayStrategy struct{}

// SleepDuration always returns zero.
func (NoDelayStrategy) SleepDuration(_ int, _ error) time.Duration {
	return 0
}

// ExponentialBackoffStrategy grows the delay by Factor on every attempt, capped at Max.
type ExponentialBackoffStrategy struct {
	Base   time.Duration
	Factor float64
	Max    time.Duration
}

// SleepDuration implements an exponential backoff with a cap at Max.
func (e ExponentialBackoffStrategy) SleepDuration(attempt int, _ error) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := float64(e.Base) * math.Pow(e.Factor, float64(attempt))
	if time.Duration(delay) > e.Max && e.Max > 0 {
		return e.Max
	}
	return time.Duration(delay)
}

// DefaultBackoff yields 1s, 2s, 4s.
var DefaultBackoff = ExponentialBackoffStrategy{Base: time.Second, Factor: 2, Max: 4 * time.Second}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
