package tasks

import (
	"strings"
	"time"
)

// isTransientFailure reports whether an execution error is worth retrying:
// network errors, provider 5xx, and rate limiting. Anything else (bad
// prompts, schema errors, permission denials) skips retry since a retry
// would just fail the same way.
func isTransientFailure(errMsg string) bool {
	if errMsg == "" {
		return false
	}
	lower := strings.ToLower(errMsg)
	switch {
	case strings.Contains(lower, "timeout"),
		strings.Contains(lower, "deadline exceeded"),
		strings.Contains(lower, "connection reset"),
		strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "rate limit"),
		strings.Contains(lower, "too many requests"),
		strings.Contains(lower, "429"),
		strings.Contains(lower, "502"),
		strings.Contains(lower, "503"),
		strings.Contains(lower, "504"),
		strings.Contains(lower, "internal server error"):
		return true
	default:
		return false
	}
}

// nextRetryDelay computes base * 2^attempts, capped at ceiling. attempts is
// the number of prior attempts (the failed execution's AttemptNumber), so
// the first retry (attempts=1) waits base*2, the second base*4, and so on.
func nextRetryDelay(base time.Duration, attempts int, ceiling time.Duration) time.Duration {
	if base <= 0 {
		base = 30 * time.Second
	}
	if ceiling <= 0 {
		ceiling = 30 * time.Minute
	}
	delay := base
	for i := 0; i < attempts && delay < ceiling; i++ {
		delay *= 2
	}
	if delay > ceiling {
		delay = ceiling
	}
	return delay
}
