package ingest

import "time"

// maxBackoff caps reconnect delays.
const maxBackoff = 30 * time.Second

// Backoff returns the delay before the next attempt after the given number
// of consecutive failures: base doubled per failure, capped at 30s.
func Backoff(failures int, base time.Duration) time.Duration {
	if failures < 0 {
		failures = 0
	}
	if base <= 0 {
		base = time.Second
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
