package probe

import "time"

const (
	// DefaultBaseDelay is the wait after the first failed attempt.
	DefaultBaseDelay = 500 * time.Millisecond

	// DefaultMaxDelay caps the wait between attempts.
	DefaultMaxDelay = 2 * time.Second

	// DefaultMaxAttempts is the attempt budget of a run.
	DefaultMaxAttempts = 4
)

// Backoff returns the wait that follows a failed attempt n (1-indexed):
// min(base * 2^(n-1), max). Attempts below 1 are treated as 1.
func Backoff(attempt int, base, maxDelay time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if base <= 0 || maxDelay <= 0 {
		return 0
	}
	if base >= maxDelay {
		return maxDelay
	}

	d := base
	for i := 1; i < attempt; i++ {
		// Doubling past maxDelay/2 would reach the cap anyway; stop before overflow.
		if d > maxDelay/2 {
			return maxDelay
		}
		d *= 2
	}
	return min(d, maxDelay)
}
