package qlab

import (
	"math"
	"time"
)

// RetryPolicy defines retry behavior for flaky measurement closures.
type RetryPolicy struct {
	MaxAttempts int
	Strategy    RetryStrategy
	Filter      func(error) bool
}

// RetryStrategy defines the interface for retry behavior
type RetryStrategy interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff implements RetryStrategy
type ExponentialBackoff struct {
	Initial time.Duration
}

func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	return eb.Initial * time.Duration(math.Pow(2, float64(attempt-1)))
}

// FixedDelay implements RetryStrategy with a constant delay, the usual
// choice when waiting out instrument settling rather than backing off.
type FixedDelay struct {
	Delay time.Duration
}

func (fd *FixedDelay) NextDelay(attempt int) time.Duration {
	return fd.Delay
}

// WithRetry configures retry behavior for a job
func WithRetry(attempts int, strategy RetryStrategy) JobOption {
	return func(j *Job) {
		j.RetryPolicy = &RetryPolicy{
			MaxAttempts: attempts,
			Strategy:    strategy,
		}
	}
}
