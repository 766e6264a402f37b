// Package retry computes backoff delays and terminal decisions for failed
// delivery attempts.
package retry

import "time"

const (
	DefaultBaseDelay   = 30 * time.Second
	DefaultMaxDelay    = 30 * time.Minute
	DefaultMaxAttempts = 5
)

// Options bound the exponential backoff curve.
type Options struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

func (o Options) withDefaults() Options {
	if o.BaseDelay <= 0 {
		o.BaseDelay = DefaultBaseDelay
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = DefaultMaxDelay
	}
	return o
}

// CalculateBackoff returns min(base * 2^attempts, max). Negative attempt
// counts are clamped to zero. Total function, no error states.
func CalculateBackoff(attempts int, opts Options) time.Duration {
	opts = opts.withDefaults()
	if attempts < 0 {
		attempts = 0
	}
	delay := opts.BaseDelay
	for i := 0; i < attempts; i++ {
		delay *= 2
		if delay >= opts.MaxDelay || delay < 0 {
			return opts.MaxDelay
		}
	}
	if delay > opts.MaxDelay {
		return opts.MaxDelay
	}
	return delay
}

// Decision is the outcome of applying the retry policy to one failure.
type Decision struct {
	Dead          bool
	Attempts      int
	NextAttemptAt *time.Time
}

// Apply increments the attempt count and decides whether the entry is dead
// or gets rescheduled. The backoff is computed from the post-increment
// count: the first retry's delay uses exponent 1, not 0.
func Apply(attempts, maxAttempts int, now time.Time, opts Options) Decision {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	next := attempts + 1
	if next >= maxAttempts {
		return Decision{Dead: true, Attempts: next}
	}
	at := now.Add(CalculateBackoff(next, opts))
	return Decision{Attempts: next, NextAttemptAt: &at}
}
