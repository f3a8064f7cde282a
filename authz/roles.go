package authz

import (
	apperrors "github.com/komunitas-dev/go-auth-core/internal/errors"
)

// RoleType represents a fixed role in the ascending privilege hierarchy
// guest < member < moderator < admin < super_admin.
type RoleType string

const (
	RoleGuest      RoleType = "guest"
	RoleMember     RoleType = "member"
	RoleModerator  RoleType = "moderator"
	RoleAdmin      RoleType = "admin"
	RoleSuperAdmin RoleType = "super_admin"
)

var roleRank = map[RoleType]int{
	RoleGuest:      0,
	RoleMember:     1,
	RoleModerator:  2,
	RoleAdmin:      3,
	RoleSuperAdmin: 4,
}

// Valid reports whether r is one of the fixed enumerated roles.
func (r RoleType) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r sits at or above other in the hierarchy.
// Unknown roles rank below guest.
func (r RoleType) AtLeast(other RoleType) bool {
	rr, ok := roleRank[r]
	if !ok {
		return false
	}
	or, ok := roleRank[other]
	if !ok {
		return false
	}
	return rr >= or
}

// ParseRole converts an external role string to a RoleType.
func ParseRole(s string) (RoleType, error) {
	r := RoleType(s)
	if !r.Valid() {
		return "", apperrors.Wrapf(apperrors.ErrInvalidRequest, "unknown role %q", s)
	}
	return r, nil
}
