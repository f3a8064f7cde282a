package audit

import (
	"context"
	"time"
)

// EventType enumerates auditable security events.
type EventType string

const (
	EventLoginFailed        EventType = "login_failed"
	EventLockoutTriggered   EventType = "lockout_triggered"
	EventRoleChanged        EventType = "role_changed"
	EventPasswordChanged    EventType = "password_changed"
	EventAccountProvisioned EventType = "account_provisioned"
	EventAccountRegistered  EventType = "account_registered"
	EventActivationChanged  EventType = "activation_changed"
	EventElevatedRisk       EventType = "elevated_risk"
)

// Event is an immutable audit entry. Identifier is the login name the event
// concerns; ActorID is set when a different authenticated identity caused it.
type Event struct {
	ID         string
	Type       EventType
	Identifier string
	ActorID    string
	Detail     string
	CreatedAt  time.Time
}

// EventRepo is the append-only event store with batched retention deletes.
type EventRepo interface {
	Append(ctx context.Context, event Event) error
	// CountRecent returns the number of events of eventType for identifier
	// created at or after since.
	CountRecent(ctx context.Context, eventType EventType, identifier string, since time.Time) (int, error)
	// DeleteOlderThan removes at most limit events older than cutoff and
	// reports how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int, error)
}
