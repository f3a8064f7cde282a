package ratelimit

import (
	"context"
	"time"
)

// AttemptRepo stores failed-attempt records. The (operation, identifier,
// timestamp) access pattern is the hot path: Window is recomputed on every
// check because exact recency matters, never cached.
type AttemptRepo interface {
	Append(ctx context.Context, attempt FailedAttempt) error
	// Window returns the number of attempts for (operation, identifier) with
	// AttemptedAt >= since, plus the oldest such timestamp. oldest is the
	// zero time when count is zero.
	Window(ctx context.Context, operation Operation, identifier string, since time.Time) (count int, oldest time.Time, err error)
	// DeleteOlderThan removes at most limit records older than cutoff and
	// reports how many were removed. Used by the retention sweeper.
	DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int, error)
}
