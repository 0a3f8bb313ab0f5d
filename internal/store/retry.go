package store

import (
	"strings"
	"time"
)

const txMaxAttempts = 3

// txBackoff returns the wait before the given retry attempt,
// doubling from 100ms and capped at 2s.
func txBackoff(attempt int) time.Duration {
	wait := 100 * time.Millisecond
	for i := 1; i < attempt; i++ {
		wait *= 2
		if wait > 2*time.Second {
			return 2 * time.Second
		}
	}
	return wait
}

// isBusyError checks if an error is a transient SQLite lock contention
// error worth retrying. Logic errors inside a transaction body are not.
func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "sqlite_busy") ||
		strings.Contains(msg, "sqlite_locked") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
