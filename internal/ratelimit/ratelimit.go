// Package ratelimit counts requests per key over fixed windows.
//
// A window opens on the first hit for a key and lasts for the configured
// duration; once it has elapsed the next hit opens a new window with a count
// of one.
package ratelimit

import (
	"context"
	"time"
)

// Result describes one counted hit.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAt is when the current window closes.
	ResetAt time.Time
}

// RetryAfter returns how long the caller should wait before the window resets.
func (r Result) RetryAfter(now time.Time) time.Duration {
	if d := r.ResetAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Store counts a hit for key and reports whether it fits within the limit.
type Store interface {
	Hit(ctx context.Context, key string) (Result, error)
}

func newResult(count, limit int, resetAt time.Time) Result {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}
