package ratelimit

import "time"

// Operation discriminates what kind of action a failed attempt belongs to.
// Login is the primary operation; other sensitive writes reuse the same
// sliding-window machinery under their own operation name.
type Operation string

const (
	OperationLogin          Operation = "login"
	OperationRegister       Operation = "register"
	OperationPasswordChange Operation = "password_change"
)

// Reason is the enumerated cause recorded with a failed attempt.
type Reason string

const (
	ReasonUnknownIdentifier Reason = "unknown_identifier"
	ReasonWrongPassword     Reason = "wrong_password"
	ReasonNotRegistered     Reason = "not_registered"
	ReasonAccountDisabled   Reason = "account_disabled"
	ReasonLockedOut         Reason = "locked_out"
	ReasonThrottled         Reason = "throttled"
)

// FailedAttempt is an append-only record of one failed operation for an
// identifier. Immutable once written; purged only by the retention sweeper.
type FailedAttempt struct {
	ID          string
	Operation   Operation
	Identifier  string
	Reason      Reason
	AttemptedAt time.Time
}
