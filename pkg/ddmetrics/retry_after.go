package ddmetrics

import (
	"strconv"
	"time"
)

// retryAfterHeader parses a Datadog 429 response's Retry-After header
// (seconds, per spec.md §4.5), returning 0 if absent or malformed so
// the Service falls back to its own backoff schedule.
func retryAfterHeader(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
