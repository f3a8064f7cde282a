package errors

import (
	"errors"
	"fmt"
	"time"
)

// Authentication and authorization failure taxonomy. Callers are expected to
// handle each case explicitly; nothing in the core maps one of these onto
// another silently.
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrRateLimited        = errors.New("rate limited")

	// Session errors
	ErrSessionExpired = errors.New("session expired")
	ErrSessionInvalid = errors.New("session invalid")

	// Authorization errors
	ErrForbidden = errors.New("forbidden")

	// Infrastructure errors
	ErrStoreUnavailable = errors.New("store unavailable")

	// General errors
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrInvalidRequest = errors.New("invalid request")
)

// RetryAfterError carries the wait-time hint for a rate-limited caller.
// It unwraps to ErrRateLimited so errors.Is keeps working at the boundary.
type RetryAfterError struct {
	RetryAfter time.Duration
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

func (e *RetryAfterError) Unwrap() error {
	return ErrRateLimited
}

// RateLimited builds a RetryAfterError with the given wait hint.
func RateLimited(retryAfter time.Duration) error {
	return &RetryAfterError{RetryAfter: retryAfter}
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
