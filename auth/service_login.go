package auth

import (
	"context"

	"github.com/komunitas-dev/go-auth-core/audit"
	"github.com/komunitas-dev/go-auth-core/authz"
	"github.com/komunitas-dev/go-auth-core/credentials"
	apperrors "github.com/komunitas-dev/go-auth-core/internal/errors"
	"github.com/komunitas-dev/go-auth-core/ratelimit"
	"github.com/komunitas-dev/go-auth-core/sessions"
)

// Login authenticates identifier/password and issues a session. The
// rate-limit check completes and is honored before the password is ever
// verified, so a locked-out identifier gets no extra oracle queries.
//
// The error distinguishes ErrInvalidCredentials, ErrAccountDisabled,
// ErrRateLimited, and ErrStoreUnavailable; the transport layer collapses the
// first two into one user-facing message.
func (s *Service) Login(ctx context.Context, identifier, password string) (*sessions.Session, string, error) {
	name := credentials.NormalizeName(identifier)
	if name == "" || password == "" {
		// No attempt record for structurally empty input; nothing useful to count.
		return nil, "", apperrors.Wrapf(apperrors.ErrInvalidCredentials, "[Service.Login] empty identifier or password")
	}

	checkCtx, cancelCheck := s.storeCtx(ctx)
	decision, err := s.limiter.CheckAllowed(checkCtx, name)
	cancelCheck()
	if err != nil {
		return nil, "", apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[Service.Login] rate limit check: %v", err)
	}
	if !decision.Allowed {
		s.recordFailure(ctx, name, ratelimit.ReasonLockedOut)
		if decision.AttemptCount == s.limiter.MaxAttempts() {
			s.auditLockout(ctx, name)
		}
		s.log.Warn().Str("identifier", name).Int("attempts", decision.AttemptCount).Msg("login locked out")
		return nil, "", apperrors.RateLimited(decision.RetryAfter)
	}

	getCtx, cancelGet := s.storeCtx(ctx)
	credential, err := s.repos.Credentials.GetByName(getCtx, name)
	cancelGet()
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			s.recordFailure(ctx, name, ratelimit.ReasonUnknownIdentifier)
			return nil, "", apperrors.Wrapf(apperrors.ErrInvalidCredentials, "[Service.Login] unknown identifier")
		}
		return nil, "", apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[Service.Login] credential lookup: %v", err)
	}

	if !credential.IsRegistered {
		s.recordFailure(ctx, name, ratelimit.ReasonNotRegistered)
		return nil, "", apperrors.Wrapf(apperrors.ErrAccountDisabled, "[Service.Login] identity not registered")
	}
	if !credential.IsActive {
		s.recordFailure(ctx, name, ratelimit.ReasonAccountDisabled)
		return nil, "", apperrors.Wrapf(apperrors.ErrAccountDisabled, "[Service.Login] identity disabled")
	}

	if !s.hasher.Verify(password, credential.PasswordHash) {
		s.recordFailure(ctx, name, ratelimit.ReasonWrongPassword)
		return nil, "", apperrors.Wrapf(apperrors.ErrInvalidCredentials, "[Service.Login] password mismatch")
	}

	elevated := credential.Role.AtLeast(authz.RoleAdmin)
	session, token, err := s.sessions.Create(credential.ID, credential.Role, elevated)
	if err != nil {
		return nil, "", apperrors.Wrapf(err, "[Service.Login] session create")
	}
	s.log.Info().Str("identity_id", credential.ID).Str("role", string(credential.Role)).Msg("login succeeded")
	return session, token, nil
}

// Validate checks a session token on behalf of a protected interaction. The
// returned refreshed token is non-empty when sliding expiration reissued the
// session; callers propagate it back to the client.
func (s *Service) Validate(ctx context.Context, token string) (*sessions.Session, string, error) {
	validateCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.sessions.Validate(validateCtx, token)
}

// Logout revokes the session behind token. Always succeeds, even when the
// token was already invalid or expired; revoking twice is a no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	revokeCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	if err := s.sessions.Revoke(revokeCtx, token); err != nil {
		// The client is discarding the token either way; an unreachable
		// revocation store must not turn logout into a user-visible failure.
		s.log.Error().Err(err).Msg("logout revocation failed")
	}
	return nil
}

func (s *Service) auditLockout(ctx context.Context, identifier string) {
	auditCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.recorder.Record(auditCtx, audit.EventLockoutTriggered, identifier, "", "failed attempt threshold exceeded"); err != nil {
		s.log.Error().Err(err).Str("identifier", identifier).Msg("failed to audit lockout")
	}
}
