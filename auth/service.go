// Package auth wires the security core together: rate-limit check first,
// then credential verification, then session issuance. It is the only entry
// point other subsystems call for authentication and account administration.
package auth

import (
	"context"
	"time"

	"github.com/komunitas-dev/go-auth-core/audit"
	"github.com/komunitas-dev/go-auth-core/credentials"
	"github.com/komunitas-dev/go-auth-core/ratelimit"
	"github.com/komunitas-dev/go-auth-core/sessions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Repos holds the durable-store dependencies for the Service.
type Repos struct {
	Credentials credentials.Repo
}

// Service orchestrates login, session checks, and account administration.
// Everything is injected at construction; there is no ambient state.
type Service struct {
	repos        Repos
	hasher       *credentials.Hasher
	limiter      *ratelimit.Limiter
	sessions     *sessions.Manager
	recorder     *audit.Recorder
	storeTimeout time.Duration
	nowTime      func() time.Time
	log          zerolog.Logger
}

// ServiceOption modifies a Service at construction time.
type ServiceOption func(*Service)

// WithStoreTimeout bounds every call into the durable store. Timed-out
// checks fail closed.
func WithStoreTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) { s.storeTimeout = timeout }
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) { s.nowTime = nowFunc }
}

// WithLogger sets the service's operational logger.
func WithLogger(log zerolog.Logger) ServiceOption {
	return func(s *Service) { s.log = log }
}

// NewService initializes a new Service with required dependencies.
// Optional configuration can be provided via options (e.g., WithNowTime for testing).
func NewService(
	repos Repos,
	hasher *credentials.Hasher,
	limiter *ratelimit.Limiter,
	sessionManager *sessions.Manager,
	recorder *audit.Recorder,
	options ...ServiceOption,
) (*Service, error) {
	if repos.Credentials == nil {
		return nil, errors.New("[NewService] Credentials repo is required")
	}
	if hasher == nil {
		return nil, errors.New("[NewService] hasher is required")
	}
	if limiter == nil {
		return nil, errors.New("[NewService] limiter is required")
	}
	if sessionManager == nil {
		return nil, errors.New("[NewService] session manager is required")
	}
	if recorder == nil {
		return nil, errors.New("[NewService] audit recorder is required")
	}

	service := &Service{
		repos:        repos,
		hasher:       hasher,
		limiter:      limiter,
		sessions:     sessionManager,
		recorder:     recorder,
		storeTimeout: 3 * time.Second,
		nowTime:      time.Now,
		log:          zerolog.Nop(),
	}
	for _, opt := range options {
		opt(service)
	}
	return service, nil
}

// storeCtx bounds a durable-store call with the configured timeout.
func (s *Service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

// recordFailure appends a failed-attempt record and the matching audit
// event. Neither failure may abort the login flow, so errors are logged and
// swallowed here, deliberately and in one place.
func (s *Service) recordFailure(ctx context.Context, identifier string, reason ratelimit.Reason) {
	recordCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	if err := s.limiter.RecordFailure(recordCtx, identifier, reason); err != nil {
		s.log.Error().Err(err).Str("identifier", identifier).Msg("failed to record login failure")
	}
	if err := s.recorder.Record(recordCtx, audit.EventLoginFailed, identifier, "", string(reason)); err != nil {
		s.log.Error().Err(err).Str("identifier", identifier).Msg("failed to audit login failure")
	}
}
