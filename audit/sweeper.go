package audit

import (
	"context"
	"time"

	apperrors "github.com/komunitas-dev/go-auth-core/internal/errors"
	"github.com/komunitas-dev/go-auth-core/ratelimit"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Sweeper is the recurring retention job. It deletes security events and
// failed-attempt records strictly older than their retention windows, in
// bounded batches chained until exhausted, so a large backlog never turns
// into one oversized delete. Because it only touches records older than the
// retention window -- which is longer than any lockout window -- it is safe
// to run concurrently with live rate-limit checks.
type Sweeper struct {
	events   EventRepo
	attempts ratelimit.AttemptRepo

	eventRetention   time.Duration
	eventInterval    time.Duration
	attemptRetention time.Duration
	attemptInterval  time.Duration
	batchSize        int

	nowTime  func() time.Time
	log      zerolog.Logger
	observer func(kind string, deleted int)
}

// SweeperOption modifies a Sweeper at construction time.
type SweeperOption func(*Sweeper)

// WithEventRetention sets retention and sweep cadence for security events.
func WithEventRetention(retention, interval time.Duration) SweeperOption {
	return func(s *Sweeper) {
		s.eventRetention = retention
		s.eventInterval = interval
	}
}

// WithAttemptRetention sets retention and sweep cadence for failed-attempt records.
func WithAttemptRetention(retention, interval time.Duration) SweeperOption {
	return func(s *Sweeper) {
		s.attemptRetention = retention
		s.attemptInterval = interval
	}
}

// WithBatchSize caps how many records one delete statement may remove.
func WithBatchSize(size int) SweeperOption {
	return func(s *Sweeper) { s.batchSize = size }
}

// WithSweepObserver registers a callback invoked after each sweep with the
// record kind and the number of records deleted (used for metrics).
func WithSweepObserver(observer func(kind string, deleted int)) SweeperOption {
	return func(s *Sweeper) { s.observer = observer }
}

// WithSweeperNowTime sets the now time function (primarily for testing)
func WithSweeperNowTime(nowFunc func() time.Time) SweeperOption {
	return func(s *Sweeper) { s.nowTime = nowFunc }
}

// WithSweeperLogger sets the sweeper's operational logger.
func WithSweeperLogger(log zerolog.Logger) SweeperOption {
	return func(s *Sweeper) { s.log = log }
}

// NewSweeper creates a Sweeper over the event and attempt stores.
func NewSweeper(events EventRepo, attempts ratelimit.AttemptRepo, options ...SweeperOption) (*Sweeper, error) {
	if events == nil {
		return nil, errors.New("[NewSweeper] event repo is required")
	}
	if attempts == nil {
		return nil, errors.New("[NewSweeper] attempt repo is required")
	}

	sweeper := &Sweeper{
		events:           events,
		attempts:         attempts,
		eventRetention:   30 * 24 * time.Hour,
		eventInterval:    24 * time.Hour,
		attemptRetention: 7 * 24 * time.Hour,
		attemptInterval:  6 * time.Hour,
		batchSize:        500,
		nowTime:          time.Now,
		log:              zerolog.Nop(),
	}
	for _, opt := range options {
		opt(sweeper)
	}
	if sweeper.batchSize <= 0 {
		return nil, errors.New("[NewSweeper] batch size must be positive")
	}
	return sweeper, nil
}

// Run sweeps on the configured cadences until ctx is cancelled. Intended to
// run as a background goroutine decoupled from request handling.
func (s *Sweeper) Run(ctx context.Context) {
	eventTicker := time.NewTicker(s.eventInterval)
	defer eventTicker.Stop()
	attemptTicker := time.NewTicker(s.attemptInterval)
	defer attemptTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-eventTicker.C:
			if _, err := s.SweepEvents(ctx); err != nil {
				s.log.Error().Err(err).Msg("event sweep failed")
			}
		case <-attemptTicker.C:
			if _, err := s.SweepAttempts(ctx); err != nil {
				s.log.Error().Err(err).Msg("attempt sweep failed")
			}
		}
	}
}

// SweepEvents purges security events older than the event retention window.
// Returns the total number of records removed.
func (s *Sweeper) SweepEvents(ctx context.Context) (int, error) {
	cutoff := s.nowTime().Add(-s.eventRetention)
	total := 0
	for {
		deleted, err := s.events.DeleteOlderThan(ctx, cutoff, s.batchSize)
		total += deleted
		if err != nil {
			return total, apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[Sweeper.SweepEvents] delete: %v", err)
		}
		if deleted < s.batchSize {
			break
		}
	}
	s.observe("events", total)
	s.log.Info().Int("deleted", total).Msg("event sweep completed")
	return total, nil
}

// SweepAttempts purges failed-attempt records older than the attempt
// retention window. Returns the total number of records removed.
func (s *Sweeper) SweepAttempts(ctx context.Context) (int, error) {
	cutoff := s.nowTime().Add(-s.attemptRetention)
	total := 0
	for {
		deleted, err := s.attempts.DeleteOlderThan(ctx, cutoff, s.batchSize)
		total += deleted
		if err != nil {
			return total, apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[Sweeper.SweepAttempts] delete: %v", err)
		}
		if deleted < s.batchSize {
			break
		}
	}
	s.observe("attempts", total)
	s.log.Info().Int("deleted", total).Msg("attempt sweep completed")
	return total, nil
}

func (s *Sweeper) observe(kind string, deleted int) {
	if s.observer != nil {
		s.observer(kind, deleted)
	}
}
