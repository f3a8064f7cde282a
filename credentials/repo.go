package credentials

import (
	"context"

	"github.com/komunitas-dev/go-auth-core/authz"
)

// Repo is the credential store. Updates are field-scoped on purpose: the
// owning user changes the password, an administrator changes role or
// activation, and neither path may overwrite the whole record, so concurrent
// edits cannot silently drop each other's fields.
type Repo interface {
	Create(ctx context.Context, credential *Credential) error
	GetByID(ctx context.Context, id string) (*Credential, error)
	GetByName(ctx context.Context, normalizedName string) (*Credential, error)
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	UpdateRole(ctx context.Context, id string, role authz.RoleType) error
	SetActive(ctx context.Context, id string, active bool) error
	SetRegistered(ctx context.Context, id string, registered bool) error
	CountByRole(ctx context.Context, role authz.RoleType) (int, error)
	List(ctx context.Context, offset, limit int) ([]*Credential, error)
}
