// Package authz implements the authorization guard: a pure mapping from a
// session's role snapshot to an allow/deny decision for a requested
// capability. The guard holds no state and performs no I/O; roles are always
// re-derived server-side from the session, never from client-supplied flags.
package authz

import (
	apperrors "github.com/komunitas-dev/go-auth-core/internal/errors"
)

// Authorize reports whether role is a member of the allow-set for capability.
// Unknown capabilities and unknown roles deny.
func Authorize(role RoleType, capability Capability) bool {
	set, ok := allowSets[capability]
	if !ok {
		return false
	}
	_, ok = set[role]
	return ok
}

// RoleChange describes a requested role change for AuthorizeRoleChange.
// OtherSuperAdmins is the number of super_admin accounts excluding the actor.
type RoleChange struct {
	ActorID          string
	ActorRole        RoleType
	TargetID         string
	TargetRole       RoleType
	NewRole          RoleType
	OtherSuperAdmins int
}

// AuthorizeRoleChange applies the role-change rules:
//
//   - the actor needs the change_roles capability;
//   - any change touching a super_admin (current or new role) needs the
//     manage_super_admins capability;
//   - a super_admin may not demote themselves while no other super_admin
//     exists, so the system cannot lose its last super_admin.
func AuthorizeRoleChange(rc RoleChange) error {
	if !rc.NewRole.Valid() {
		return apperrors.Wrapf(apperrors.ErrInvalidRequest, "[AuthorizeRoleChange] role %q", rc.NewRole)
	}
	if !Authorize(rc.ActorRole, CapabilityChangeRoles) {
		return apperrors.Wrapf(apperrors.ErrForbidden, "[AuthorizeRoleChange] %s cannot change roles", rc.ActorRole)
	}
	touchesSuperAdmin := rc.TargetRole == RoleSuperAdmin || rc.NewRole == RoleSuperAdmin
	if touchesSuperAdmin && !Authorize(rc.ActorRole, CapabilityManageSuperAdmins) {
		return apperrors.Wrapf(apperrors.ErrForbidden, "[AuthorizeRoleChange] only super_admin may change super_admin roles")
	}
	selfDemotion := rc.ActorID == rc.TargetID &&
		rc.TargetRole == RoleSuperAdmin &&
		rc.NewRole != RoleSuperAdmin
	if selfDemotion && rc.OtherSuperAdmins == 0 {
		return apperrors.Wrapf(apperrors.ErrForbidden, "[AuthorizeRoleChange] cannot demote the last super_admin")
	}
	return nil
}
