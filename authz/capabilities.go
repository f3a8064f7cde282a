package authz

// Capability identifies a protected action. Checks are expressed as explicit
// allow-sets per capability rather than rank comparisons, because a few
// capabilities are role-specific rather than strictly hierarchical.
type Capability string

const (
	// CapabilityViewContent covers the public read surface.
	CapabilityViewContent Capability = "view_content"
	// CapabilityViewMembers covers the member directory read surface.
	CapabilityViewMembers Capability = "view_members"
	// CapabilityManageContent covers content writes consumed by the CMS panels.
	CapabilityManageContent Capability = "manage_content"
	// CapabilityProvisionAccounts allows pre-creating inactive identities.
	CapabilityProvisionAccounts Capability = "provision_accounts"
	// CapabilityChangeRoles allows changing another account's role.
	CapabilityChangeRoles Capability = "change_roles"
	// CapabilityToggleActivation allows enabling/disabling accounts.
	CapabilityToggleActivation Capability = "toggle_activation"
	// CapabilityReadAuditLog allows reading security events.
	CapabilityReadAuditLog Capability = "read_audit_log"
	// CapabilityManageSuperAdmins gates any role change that touches a
	// super_admin, in either direction.
	CapabilityManageSuperAdmins Capability = "manage_super_admins"
)

var allowSets = map[Capability]map[RoleType]struct{}{
	CapabilityViewContent: {
		RoleGuest: {}, RoleMember: {}, RoleModerator: {}, RoleAdmin: {}, RoleSuperAdmin: {},
	},
	CapabilityViewMembers: {
		RoleMember: {}, RoleModerator: {}, RoleAdmin: {}, RoleSuperAdmin: {},
	},
	CapabilityManageContent: {
		RoleModerator: {}, RoleAdmin: {}, RoleSuperAdmin: {},
	},
	CapabilityProvisionAccounts: {
		RoleAdmin: {}, RoleSuperAdmin: {},
	},
	CapabilityChangeRoles: {
		RoleAdmin: {}, RoleSuperAdmin: {},
	},
	CapabilityToggleActivation: {
		RoleAdmin: {}, RoleSuperAdmin: {},
	},
	CapabilityReadAuditLog: {
		RoleAdmin: {}, RoleSuperAdmin: {},
	},
	CapabilityManageSuperAdmins: {
		RoleSuperAdmin: {},
	},
}
