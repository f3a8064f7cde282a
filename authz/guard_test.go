package authz_test

import (
	"testing"

	"github.com/komunitas-dev/go-auth-core/authz"
	apperrors "github.com/komunitas-dev/go-auth-core/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestAuthorize(t *testing.T) {
	allRoles := []authz.RoleType{
		authz.RoleGuest, authz.RoleMember, authz.RoleModerator,
		authz.RoleAdmin, authz.RoleSuperAdmin,
	}

	t.Run("everyone can view content", func(t *testing.T) {
		for _, role := range allRoles {
			require.True(t, authz.Authorize(role, authz.CapabilityViewContent), string(role))
		}
	})

	t.Run("guests cannot view members", func(t *testing.T) {
		require.False(t, authz.Authorize(authz.RoleGuest, authz.CapabilityViewMembers))
		require.True(t, authz.Authorize(authz.RoleMember, authz.CapabilityViewMembers))
	})

	t.Run("content management starts at moderator", func(t *testing.T) {
		require.False(t, authz.Authorize(authz.RoleMember, authz.CapabilityManageContent))
		require.True(t, authz.Authorize(authz.RoleModerator, authz.CapabilityManageContent))
	})

	t.Run("account administration starts at admin", func(t *testing.T) {
		for _, capability := range []authz.Capability{
			authz.CapabilityProvisionAccounts,
			authz.CapabilityChangeRoles,
			authz.CapabilityToggleActivation,
			authz.CapabilityReadAuditLog,
		} {
			require.False(t, authz.Authorize(authz.RoleModerator, capability), string(capability))
			require.True(t, authz.Authorize(authz.RoleAdmin, capability), string(capability))
			require.True(t, authz.Authorize(authz.RoleSuperAdmin, capability), string(capability))
		}
	})

	t.Run("only super_admin manages super_admins", func(t *testing.T) {
		require.False(t, authz.Authorize(authz.RoleAdmin, authz.CapabilityManageSuperAdmins))
		require.True(t, authz.Authorize(authz.RoleSuperAdmin, authz.CapabilityManageSuperAdmins))
	})

	t.Run("unknown role or capability denies", func(t *testing.T) {
		require.False(t, authz.Authorize(authz.RoleType("owner"), authz.CapabilityViewContent))
		require.False(t, authz.Authorize(authz.RoleSuperAdmin, authz.Capability("launch_missiles")))
	})
}

func TestRoleType(t *testing.T) {
	t.Run("hierarchy ordering", func(t *testing.T) {
		require.True(t, authz.RoleAdmin.AtLeast(authz.RoleModerator))
		require.True(t, authz.RoleAdmin.AtLeast(authz.RoleAdmin))
		require.False(t, authz.RoleMember.AtLeast(authz.RoleModerator))
	})

	t.Run("unknown roles rank nowhere", func(t *testing.T) {
		require.False(t, authz.RoleType("owner").AtLeast(authz.RoleGuest))
		require.False(t, authz.RoleType("owner").Valid())
	})

	t.Run("parse", func(t *testing.T) {
		role, err := authz.ParseRole("moderator")
		require.NoError(t, err)
		require.Equal(t, authz.RoleModerator, role)

		_, err = authz.ParseRole("owner")
		require.Error(t, err)
		require.True(t, apperrors.Is(err, apperrors.ErrInvalidRequest))
	})
}

func TestAuthorizeRoleChange(t *testing.T) {
	t.Run("admin promotes a member", func(t *testing.T) {
		err := authz.AuthorizeRoleChange(authz.RoleChange{
			ActorID:    "admin-1",
			ActorRole:  authz.RoleAdmin,
			TargetID:   "member-1",
			TargetRole: authz.RoleMember,
			NewRole:    authz.RoleModerator,
		})
		require.NoError(t, err)
	})

	t.Run("moderator cannot change roles", func(t *testing.T) {
		err := authz.AuthorizeRoleChange(authz.RoleChange{
			ActorID:    "mod-1",
			ActorRole:  authz.RoleModerator,
			TargetID:   "member-1",
			TargetRole: authz.RoleMember,
			NewRole:    authz.RoleModerator,
		})
		require.True(t, apperrors.Is(err, apperrors.ErrForbidden))
	})

	t.Run("admin cannot promote to super_admin", func(t *testing.T) {
		err := authz.AuthorizeRoleChange(authz.RoleChange{
			ActorID:    "admin-1",
			ActorRole:  authz.RoleAdmin,
			TargetID:   "member-1",
			TargetRole: authz.RoleMember,
			NewRole:    authz.RoleSuperAdmin,
		})
		require.True(t, apperrors.Is(err, apperrors.ErrForbidden))
	})

	t.Run("admin cannot demote a super_admin", func(t *testing.T) {
		err := authz.AuthorizeRoleChange(authz.RoleChange{
			ActorID:    "admin-1",
			ActorRole:  authz.RoleAdmin,
			TargetID:   "root-1",
			TargetRole: authz.RoleSuperAdmin,
			NewRole:    authz.RoleAdmin,
		})
		require.True(t, apperrors.Is(err, apperrors.ErrForbidden))
	})

	t.Run("last super_admin may not demote themselves", func(t *testing.T) {
		err := authz.AuthorizeRoleChange(authz.RoleChange{
			ActorID:          "root-1",
			ActorRole:        authz.RoleSuperAdmin,
			TargetID:         "root-1",
			TargetRole:       authz.RoleSuperAdmin,
			NewRole:          authz.RoleAdmin,
			OtherSuperAdmins: 0,
		})
		require.True(t, apperrors.Is(err, apperrors.ErrForbidden))
	})

	t.Run("self-demotion allowed when another super_admin exists", func(t *testing.T) {
		err := authz.AuthorizeRoleChange(authz.RoleChange{
			ActorID:          "root-1",
			ActorRole:        authz.RoleSuperAdmin,
			TargetID:         "root-1",
			TargetRole:       authz.RoleSuperAdmin,
			NewRole:          authz.RoleAdmin,
			OtherSuperAdmins: 1,
		})
		require.NoError(t, err)
	})

	t.Run("super_admin demoting a different super_admin is allowed", func(t *testing.T) {
		err := authz.AuthorizeRoleChange(authz.RoleChange{
			ActorID:          "root-1",
			ActorRole:        authz.RoleSuperAdmin,
			TargetID:         "root-2",
			TargetRole:       authz.RoleSuperAdmin,
			NewRole:          authz.RoleAdmin,
			OtherSuperAdmins: 1,
		})
		require.NoError(t, err)
	})

	t.Run("invalid new role is rejected", func(t *testing.T) {
		err := authz.AuthorizeRoleChange(authz.RoleChange{
			ActorID:    "admin-1",
			ActorRole:  authz.RoleAdmin,
			TargetID:   "member-1",
			TargetRole: authz.RoleMember,
			NewRole:    authz.RoleType("owner"),
		})
		require.True(t, apperrors.Is(err, apperrors.ErrInvalidRequest))
	})
}
