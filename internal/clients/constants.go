package clients

import "time"

const (
	MAX_RETRIES     = 3
	INITIAL_BACKOFF = 1 * time.Second
	MAX_BACKOFF     = 8 * time.Second
)

// nextBackoff doubles the wait, capped at MAX_BACKOFF.
func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > MAX_BACKOFF {
		return MAX_BACKOFF
	}
	return next
}
