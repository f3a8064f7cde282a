package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/komunitas-dev/go-auth-core/audit"
	"github.com/komunitas-dev/go-auth-core/authz"
	"github.com/komunitas-dev/go-auth-core/credentials"
	apperrors "github.com/komunitas-dev/go-auth-core/internal/errors"
	"github.com/komunitas-dev/go-auth-core/ratelimit"
	"github.com/komunitas-dev/go-auth-core/sessions"
)

const (
	registerMaxAttempts       = 5
	registerWindow            = 15 * time.Minute
	passwordChangeMaxAttempts = 5
	passwordChangeWindow      = 15 * time.Minute
)

// ChangeRole changes the target account's role after the authorization guard
// approves the actor. Live sessions of the target keep presenting the old
// role snapshot until natural expiry; callers wanting immediate effect use
// the session manager's RefreshRole on the affected token.
func (s *Service) ChangeRole(ctx context.Context, actor *sessions.Session, targetID string, newRole authz.RoleType) error {
	if actor == nil {
		return apperrors.Wrapf(apperrors.ErrSessionInvalid, "[Service.ChangeRole] no session")
	}

	getCtx, cancelGet := s.storeCtx(ctx)
	target, err := s.repos.Credentials.GetByID(getCtx, targetID)
	cancelGet()
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return apperrors.Wrapf(apperrors.ErrNotFound, "[Service.ChangeRole] target %s", targetID)
		}
		return apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[Service.ChangeRole] target lookup: %v", err)
	}

	otherSuperAdmins, err := s.countOtherSuperAdmins(ctx, actor)
	if err != nil {
		return err
	}
	if err := authz.AuthorizeRoleChange(authz.RoleChange{
		ActorID:          actor.IdentityID,
		ActorRole:        actor.Role,
		TargetID:         target.ID,
		TargetRole:       target.Role,
		NewRole:          newRole,
		OtherSuperAdmins: otherSuperAdmins,
	}); err != nil {
		s.log.Warn().
			Str("actor_id", actor.IdentityID).
			Str("target_id", target.ID).
			Str("new_role", string(newRole)).
			Msg("role change denied")
		return err
	}

	updateCtx, cancelUpdate := s.storeCtx(ctx)
	err = s.repos.Credentials.UpdateRole(updateCtx, target.ID, newRole)
	cancelUpdate()
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[Service.ChangeRole] update: %v", err)
	}

	s.auditAdminAction(ctx, audit.EventRoleChanged, target.NormalizedName, actor.IdentityID,
		fmt.Sprintf("%s -> %s", target.Role, newRole))
	return nil
}

// SetActive enables or disables the target account. Disabling is the only
// removal the auth core supports; records are never deleted.
func (s *Service) SetActive(ctx context.Context, actor *sessions.Session, targetID string, active bool) error {
	if actor == nil {
		return apperrors.Wrapf(apperrors.ErrSessionInvalid, "[Service.SetActive] no session")
	}
	if !authz.Authorize(actor.Role, authz.CapabilityToggleActivation) {
		return apperrors.Wrapf(apperrors.ErrForbidden, "[Service.SetActive] %s cannot toggle activation", actor.Role)
	}

	getCtx, cancelGet := s.storeCtx(ctx)
	target, err := s.repos.Credentials.GetByID(getCtx, targetID)
	cancelGet()
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return apperrors.Wrapf(apperrors.ErrNotFound, "[Service.SetActive] target %s", targetID)
		}
		return apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[Service.SetActive] target lookup: %v", err)
	}
	if target.Role == authz.RoleSuperAdmin && !authz.Authorize(actor.Role, authz.CapabilityManageSuperAdmins) {
		return apperrors.Wrapf(apperrors.ErrForbidden, "[Service.SetActive] only super_admin may touch super_admin accounts")
	}
	if !active && actor.IdentityID == target.ID && target.Role == authz.RoleSuperAdmin {
		otherSuperAdmins, err := s.countOtherSuperAdmins(ctx, actor)
		if err != nil {
			return err
		}
		if otherSuperAdmins == 0 {
			return apperrors.Wrapf(apperrors.ErrForbidden, "[Service.SetActive] cannot disable the last super_admin")
		}
	}

	updateCtx, cancelUpdate := s.storeCtx(ctx)
	err = s.repos.Credentials.SetActive(updateCtx, target.ID, active)
	cancelUpdate()
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[Service.SetActive] update: %v", err)
	}

	s.auditAdminAction(ctx, audit.EventActivationChanged, target.NormalizedName, actor.IdentityID,
		fmt.Sprintf("active=%t", active))
	return nil
}

// Provision pre-creates an inactive identity with no password. The account
// cannot authenticate until the registration path sets a password and flips
// IsRegistered.
func (s *Service) Provision(ctx context.Context, actor *sessions.Session, name string, role authz.RoleType) (*credentials.Credential, error) {
	if actor == nil {
		return nil, apperrors.Wrapf(apperrors.ErrSessionInvalid, "[Service.Provision] no session")
	}
	if !authz.Authorize(actor.Role, authz.CapabilityProvisionAccounts) {
		return nil, apperrors.Wrapf(apperrors.ErrForbidden, "[Service.Provision] %s cannot provision accounts", actor.Role)
	}
	if role == authz.RoleSuperAdmin && !authz.Authorize(actor.Role, authz.CapabilityManageSuperAdmins) {
		return nil, apperrors.Wrapf(apperrors.ErrForbidden, "[Service.Provision] only super_admin may provision super_admin")
	}
	if !role.Valid() {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidRequest, "[Service.Provision] role %q", role)
	}
	if err := credentials.ValidateName(name); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidRequest, "[Service.Provision] %v", err)
	}

	now := s.nowTime()
	credential := &credentials.Credential{
		ID:             uuid.New().String(),
		Name:           name,
		NormalizedName: credentials.NormalizeName(name),
		Role:           role,
		IsRegistered:   false,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	createCtx, cancel := s.storeCtx(ctx)
	err := s.repos.Credentials.Create(createCtx, credential)
	cancel()
	if err != nil {
		if apperrors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.Wrapf(apperrors.ErrConflict, "[Service.Provision] name taken")
		}
		return nil, apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[Service.Provision] create: %v", err)
	}

	s.auditAdminAction(ctx, audit.EventAccountProvisioned, credential.NormalizedName, actor.IdentityID, string(role))
	return credential, nil
}

// Register completes a provisioned identity or self-registers a new member
// account. Registration is throttled per identifier with the generic
// rate-limit path so the endpoint cannot be used to grind names.
func (s *Service) Register(ctx context.Context, name, password string) (*credentials.Credential, error) {
	normalized := credentials.NormalizeName(name)
	if err := credentials.ValidateName(name); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidRequest, "[Service.Register] %v", err)
	}

	limitCtx, cancelLimit := s.storeCtx(ctx)
	decision, err := s.limiter.CheckRateLimit(limitCtx, ratelimit.OperationRegister, normalized, registerMaxAttempts, registerWindow)
	cancelLimit()
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[Service.Register] rate limit check: %v", err)
	}
	if !decision.Allowed {
		return nil, apperrors.RateLimited(decision.RetryAfter)
	}

	if err := credentials.ValidatePasswordStrength(password); err != nil {
		s.recordOperationFailure(ctx, ratelimit.OperationRegister, normalized)
		return nil, apperrors.Wrapf(apperrors.ErrInvalidRequest, "[Service.Register] %v", err)
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Service.Register] hash")
	}

	getCtx, cancelGet := s.storeCtx(ctx)
	existing, err := s.repos.Credentials.GetByName(getCtx, normalized)
	cancelGet()
	switch {
	case err == nil:
		// Completing a provisioned identity. An already-registered name is a
		// conflict; the caller gets no hint whether the record is active.
		if existing.IsRegistered {
			s.recordOperationFailure(ctx, ratelimit.OperationRegister, normalized)
			return nil, apperrors.Wrapf(apperrors.ErrConflict, "[Service.Register] name taken")
		}
		if err := s.completeRegistration(ctx, existing, passwordHash); err != nil {
			return nil, err
		}
		existing.IsRegistered = true
		return existing, nil
	case apperrors.Is(err, apperrors.ErrNotFound):
		return s.selfRegister(ctx, name, normalized, passwordHash)
	default:
		return nil, apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[Service.Register] lookup: %v", err)
	}
}

// ChangePassword lets the session's owner rotate their password after
// re-proving the current one. Throttled as a sensitive write.
func (s *Service) ChangePassword(ctx context.Context, session *sessions.Session, currentPassword, newPassword string) error {
	if session == nil {
		return apperrors.Wrapf(apperrors.ErrSessionInvalid, "[Service.ChangePassword] no session")
	}

	getCtx, cancelGet := s.storeCtx(ctx)
	credential, err := s.repos.Credentials.GetByID(getCtx, session.IdentityID)
	cancelGet()
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return apperrors.Wrapf(apperrors.ErrSessionInvalid, "[Service.ChangePassword] identity gone")
		}
		return apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[Service.ChangePassword] lookup: %v", err)
	}

	limitCtx, cancelLimit := s.storeCtx(ctx)
	decision, err := s.limiter.CheckRateLimit(limitCtx, ratelimit.OperationPasswordChange, credential.NormalizedName, passwordChangeMaxAttempts, passwordChangeWindow)
	cancelLimit()
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[Service.ChangePassword] rate limit check: %v", err)
	}
	if !decision.Allowed {
		return apperrors.RateLimited(decision.RetryAfter)
	}

	if !s.hasher.Verify(currentPassword, credential.PasswordHash) {
		s.recordOperationFailure(ctx, ratelimit.OperationPasswordChange, credential.NormalizedName)
		return apperrors.Wrapf(apperrors.ErrInvalidCredentials, "[Service.ChangePassword] current password mismatch")
	}
	if err := credentials.ValidatePasswordStrength(newPassword); err != nil {
		return apperrors.Wrapf(apperrors.ErrInvalidRequest, "[Service.ChangePassword] %v", err)
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperrors.Wrapf(err, "[Service.ChangePassword] hash")
	}

	updateCtx, cancelUpdate := s.storeCtx(ctx)
	err = s.repos.Credentials.UpdatePasswordHash(updateCtx, credential.ID, passwordHash)
	cancelUpdate()
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[Service.ChangePassword] update: %v", err)
	}

	s.auditAdminAction(ctx, audit.EventPasswordChanged, credential.NormalizedName, session.IdentityID, "")
	return nil
}

// EnsureSuperAdmin seeds a registered, active super_admin when none exists.
// Called once at startup; a no-op when any super_admin is already present.
func (s *Service) EnsureSuperAdmin(ctx context.Context, name, password string) error {
	countCtx, cancelCount := s.storeCtx(ctx)
	count, err := s.repos.Credentials.CountByRole(countCtx, authz.RoleSuperAdmin)
	cancelCount()
	if err != nil {
		return apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[Service.EnsureSuperAdmin] count: %v", err)
	}
	if count > 0 {
		return nil
	}

	if err := credentials.ValidateName(name); err != nil {
		return apperrors.Wrapf(apperrors.ErrInvalidRequest, "[Service.EnsureSuperAdmin] %v", err)
	}
	if err := credentials.ValidatePasswordStrength(password); err != nil {
		return apperrors.Wrapf(apperrors.ErrInvalidRequest, "[Service.EnsureSuperAdmin] %v", err)
	}
	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return apperrors.Wrapf(err, "[Service.EnsureSuperAdmin] hash")
	}

	now := s.nowTime()
	credential := &credentials.Credential{
		ID:             uuid.New().String(),
		Name:           name,
		NormalizedName: credentials.NormalizeName(name),
		PasswordHash:   passwordHash,
		Role:           authz.RoleSuperAdmin,
		IsRegistered:   true,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	createCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.repos.Credentials.Create(createCtx, credential); err != nil {
		return apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[Service.EnsureSuperAdmin] create: %v", err)
	}
	s.log.Info().Str("identity_id", credential.ID).Msg("bootstrap super_admin created")
	return nil
}

func (s *Service) completeRegistration(ctx context.Context, credential *credentials.Credential, passwordHash string) error {
	updateCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	if err := s.repos.Credentials.UpdatePasswordHash(updateCtx, credential.ID, passwordHash); err != nil {
		return apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[Service.Register] set password: %v", err)
	}
	if err := s.repos.Credentials.SetRegistered(updateCtx, credential.ID, true); err != nil {
		return apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[Service.Register] set registered: %v", err)
	}
	s.auditAdminAction(ctx, audit.EventAccountRegistered, credential.NormalizedName, "", "provisioned identity completed")
	return nil
}

func (s *Service) selfRegister(ctx context.Context, name, normalized, passwordHash string) (*credentials.Credential, error) {
	now := s.nowTime()
	credential := &credentials.Credential{
		ID:             uuid.New().String(),
		Name:           name,
		NormalizedName: normalized,
		PasswordHash:   passwordHash,
		Role:           authz.RoleMember,
		IsRegistered:   true,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	createCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.repos.Credentials.Create(createCtx, credential); err != nil {
		if apperrors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.Wrapf(apperrors.ErrConflict, "[Service.Register] name taken")
		}
		return nil, apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[Service.Register] create: %v", err)
	}
	s.auditAdminAction(ctx, audit.EventAccountRegistered, normalized, "", "self registration")
	return credential, nil
}

func (s *Service) countOtherSuperAdmins(ctx context.Context, actor *sessions.Session) (int, error) {
	countCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	count, err := s.repos.Credentials.CountByRole(countCtx, authz.RoleSuperAdmin)
	if err != nil {
		return 0, apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[Service.countOtherSuperAdmins] count: %v", err)
	}
	if actor.Role == authz.RoleSuperAdmin && count > 0 {
		count--
	}
	return count, nil
}

func (s *Service) recordOperationFailure(ctx context.Context, operation ratelimit.Operation, identifier string) {
	recordCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.limiter.RecordOperationFailure(recordCtx, operation, identifier, ratelimit.ReasonThrottled); err != nil {
		s.log.Error().Err(err).Str("identifier", identifier).Str("operation", string(operation)).Msg("failed to record operation failure")
	}
}

func (s *Service) auditAdminAction(ctx context.Context, eventType audit.EventType, identifier, actorID, detail string) {
	auditCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.recorder.Record(auditCtx, eventType, identifier, actorID, detail); err != nil {
		s.log.Error().Err(err).Str("identifier", identifier).Str("event", string(eventType)).Msg("failed to audit event")
	}
}
