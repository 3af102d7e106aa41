package domain

import (
	"math"
	"math/rand"
	"time"
)

// Retry backoff tuning. Delays grow exponentially from the base, are
// capped, and carry +-50% jitter so retry waves do not line up.
const (
	retryBackoffBase   = 30 * time.Second
	retryBackoffFactor = 2.0
	retryBackoffCap    = 10 * time.Minute
)

// RetryBackoff returns the wait before the given attempt (1-based) is run
// again.
func RetryBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(retryBackoffBase) * math.Pow(retryBackoffFactor, float64(attempt-1))
	if delay > float64(retryBackoffCap) {
		delay = float64(retryBackoffCap)
	}
	// jitter in [0.5, 1.5)
	delay *= 0.5 + rand.Float64()
	if delay > float64(retryBackoffCap) {
		delay = float64(retryBackoffCap)
	}
	return time.Duration(delay)
}
