// Package audit owns the security event log: append-only records of failed
// logins, lockouts, and administrative changes, a retention sweeper that
// purges old records in bounded batches, and advisory alerting when one
// identifier accumulates failures quickly.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/komunitas-dev/go-auth-core/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Recorder appends audit events and raises the elevated-risk signal when the
// failure count for one identifier crosses the alert threshold within the
// alert window.
type Recorder struct {
	repo           EventRepo
	notifier       Notifier
	alertWindow    time.Duration
	alertThreshold int
	nowTime        func() time.Time
	log            zerolog.Logger
}

// RecorderOption modifies a Recorder at construction time.
type RecorderOption func(*Recorder)

// WithAlerting sets the elevated-risk window and threshold.
func WithAlerting(window time.Duration, threshold int) RecorderOption {
	return func(r *Recorder) {
		r.alertWindow = window
		r.alertThreshold = threshold
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) RecorderOption {
	return func(r *Recorder) { r.nowTime = nowFunc }
}

// WithLogger sets the recorder's operational logger.
func WithLogger(log zerolog.Logger) RecorderOption {
	return func(r *Recorder) { r.log = log }
}

// NewRecorder creates a Recorder over repo, notifying via notifier.
func NewRecorder(repo EventRepo, notifier Notifier, options ...RecorderOption) (*Recorder, error) {
	if repo == nil {
		return nil, errors.New("[NewRecorder] event repo is required")
	}
	if notifier == nil {
		return nil, errors.New("[NewRecorder] notifier is required")
	}

	recorder := &Recorder{
		repo:           repo,
		notifier:       notifier,
		alertWindow:    time.Hour,
		alertThreshold: 10,
		nowTime:        time.Now,
		log:            zerolog.Nop(),
	}
	for _, opt := range options {
		opt(recorder)
	}
	return recorder, nil
}

// Record appends an audit event. For login failures it additionally checks
// the alert window; crossing the threshold emits an elevated_risk event and
// notifies operators. Alerting is advisory: its own failures are logged,
// never propagated, so it cannot block the caller.
func (r *Recorder) Record(ctx context.Context, eventType EventType, identifier, actorID, detail string) error {
	event := Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		Identifier: identifier,
		ActorID:    actorID,
		Detail:     detail,
		CreatedAt:  r.nowTime(),
	}
	if err := r.repo.Append(ctx, event); err != nil {
		return apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[Recorder.Record] append: %v", err)
	}
	if eventType == EventLoginFailed {
		r.checkElevatedRisk(ctx, identifier)
	}
	return nil
}

func (r *Recorder) checkElevatedRisk(ctx context.Context, identifier string) {
	since := r.nowTime().Add(-r.alertWindow)
	count, err := r.repo.CountRecent(ctx, EventLoginFailed, identifier, since)
	if err != nil {
		r.log.Error().Err(err).Str("identifier", identifier).Msg("elevated risk count failed")
		return
	}
	// Fire exactly once per window crossing, not on every failure above it.
	if count != r.alertThreshold {
		return
	}

	detail := fmt.Sprintf("%d failed logins within %s", count, r.alertWindow)
	riskEvent := Event{
		ID:         uuid.New().String(),
		Type:       EventElevatedRisk,
		Identifier: identifier,
		Detail:     detail,
		CreatedAt:  r.nowTime(),
	}
	if err := r.repo.Append(ctx, riskEvent); err != nil {
		r.log.Error().Err(err).Str("identifier", identifier).Msg("elevated risk append failed")
	}
	if err := r.notifier.Notify(ctx, "elevated risk: "+identifier, detail); err != nil {
		r.log.Error().Err(err).Str("identifier", identifier).Msg("elevated risk notification failed")
	}
}
