// Package ratelimit implements the login lockout manager: failed attempts
// are counted per identifier inside a trailing window and further attempts
// are blocked once a threshold is exceeded. The check and the record are two
// separate operations; concurrent attempts for the same identifier may both
// see "allowed" before either records failure. That race only loosens the
// bound slightly and never bypasses the credential check itself.
package ratelimit

import (
	"context"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/komunitas-dev/go-auth-core/internal/errors"
	"github.com/pkg/errors"
)

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed      bool
	AttemptCount int
	RetryAfter   time.Duration // wait hint, only set when blocked
}

// Limiter counts failed attempts over a sliding window. Defaults cover the
// login operation; CheckRateLimit serves other throttled operations with
// their own limits.
type Limiter struct {
	repo        AttemptRepo
	maxAttempts int
	window      time.Duration
	nowTime     func() time.Time
}

// LimiterOption modifies a Limiter at construction time.
type LimiterOption func(*Limiter)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) LimiterOption {
	return func(l *Limiter) {
		l.nowTime = nowFunc
	}
}

// NewLimiter creates a Limiter over repo with the login limits.
func NewLimiter(repo AttemptRepo, maxAttempts int, window time.Duration, options ...LimiterOption) (*Limiter, error) {
	if repo == nil {
		return nil, errors.New("[NewLimiter] attempt repo is required")
	}
	if maxAttempts <= 0 {
		return nil, errors.New("[NewLimiter] maxAttempts must be positive")
	}
	if window <= 0 {
		return nil, errors.New("[NewLimiter] window must be positive")
	}

	limiter := &Limiter{
		repo:        repo,
		maxAttempts: maxAttempts,
		window:      window,
		nowTime:     time.Now,
	}
	for _, opt := range options {
		opt(limiter)
	}
	return limiter, nil
}

// MaxAttempts returns the configured login attempt threshold.
func (l *Limiter) MaxAttempts() int {
	return l.maxAttempts
}

// CheckAllowed checks the login window for identifier. A store failure fails
// closed: the decision is "not allowed" and the error carries
// ErrStoreUnavailable.
func (l *Limiter) CheckAllowed(ctx context.Context, identifier string) (Decision, error) {
	return l.CheckRateLimit(ctx, OperationLogin, identifier, l.maxAttempts, l.window)
}

// RecordFailure appends a login failure for identifier. Recording happens
// even while already locked out, so the window extends under continued
// pressure instead of releasing at a fixed boundary.
func (l *Limiter) RecordFailure(ctx context.Context, identifier string, reason Reason) error {
	return l.RecordOperationFailure(ctx, OperationLogin, identifier, reason)
}

// CheckRateLimit checks an arbitrary operation window. Exists separately from
// CheckAllowed so non-login operations (sensitive writes) can be throttled
// with their own limits following the same pattern.
func (l *Limiter) CheckRateLimit(ctx context.Context, operation Operation, identifier string, maxAttempts int, window time.Duration) (Decision, error) {
	now := l.nowTime()
	count, oldest, err := l.repo.Window(ctx, operation, identifier, now.Add(-window))
	if err != nil {
		// Fail closed: an unknown window counts as a full one.
		return Decision{Allowed: false, RetryAfter: window},
			apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[Limiter.CheckRateLimit] window query: %v", err)
	}
	if count >= maxAttempts {
		retryAfter := oldest.Add(window).Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return Decision{Allowed: false, AttemptCount: count, RetryAfter: retryAfter}, nil
	}
	return Decision{Allowed: true, AttemptCount: count}, nil
}

// RecordOperationFailure appends a failure record for an arbitrary operation.
func (l *Limiter) RecordOperationFailure(ctx context.Context, operation Operation, identifier string, reason Reason) error {
	attempt := FailedAttempt{
		ID:          uuid.New().String(),
		Operation:   operation,
		Identifier:  identifier,
		Reason:      reason,
		AttemptedAt: l.nowTime(),
	}
	if err := l.repo.Append(ctx, attempt); err != nil {
		return apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[Limiter.RecordOperationFailure] append: %v", err)
	}
	return nil
}
