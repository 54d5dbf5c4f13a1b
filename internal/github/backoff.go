package github

import "time"

// BackoffPolicy computes retry delays without performing any I/O, so it can
// be tested in isolation from the network.
type BackoffPolicy struct {
	Base        time.Duration // delay before the first retry
	Max         time.Duration // cap on the exponential growth
	MaxAttempts int           // retries before giving up
}

// DefaultBackoff returns the policy used when none is configured.
func DefaultBackoff() BackoffPolicy {
	return BackoffPolicy{
		Base:        1 * time.Second,
		Max:         30 * time.Second,
		MaxAttempts: 3,
	}
}

// Delay returns the wait before retry number attempt (1-based), doubling
// per attempt and capped at Max.
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	delay := p.Base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.Max {
			return p.Max
		}
	}
	if delay > p.Max {
		return p.Max
	}
	return delay
}

// GiveUp reports whether the retry budget is spent.
func (p BackoffPolicy) GiveUp(attempt int) bool {
	return attempt > p.MaxAttempts
}
