package fakecredentialrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/komunitas-dev/go-auth-core/authz"
	"github.com/komunitas-dev/go-auth-core/credentials"
	apperrors "github.com/komunitas-dev/go-auth-core/internal/errors"
)

var _ credentials.Repo = (*FakeCredentialRepo)(nil)

type FakeCredentialRepo struct {
	records map[string]*credentials.Credential
	nameIds map[string]string // normalized name to credential id
	lock    sync.RWMutex
}

func NewFakeCredentialRepo() *FakeCredentialRepo {
	return &FakeCredentialRepo{
		records: make(map[string]*credentials.Credential),
		nameIds: make(map[string]string),
	}
}

func (cr *FakeCredentialRepo) Create(_ context.Context, credential *credentials.Credential) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()

	if credential.NormalizedName == "" {
		credential.NormalizedName = credentials.NormalizeName(credential.Name)
	}
	if _, ok := cr.nameIds[credential.NormalizedName]; ok {
		return apperrors.Wrapf(apperrors.ErrConflict, "name %q already exists", credential.NormalizedName)
	}
	if credential.ID == "" {
		credential.ID = uuid.New().String()
	}
	clone := *credential
	cr.records[credential.ID] = &clone
	cr.nameIds[credential.NormalizedName] = credential.ID
	return nil
}

func (cr *FakeCredentialRepo) GetByID(_ context.Context, id string) (*credentials.Credential, error) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()

	record, ok := cr.records[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *record
	return &clone, nil
}

func (cr *FakeCredentialRepo) GetByName(_ context.Context, normalizedName string) (*credentials.Credential, error) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()

	id, ok := cr.nameIds[normalizedName]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *cr.records[id]
	return &clone, nil
}

func (cr *FakeCredentialRepo) UpdatePasswordHash(_ context.Context, id, passwordHash string) error {
	return cr.patch(id, func(c *credentials.Credential) {
		c.PasswordHash = passwordHash
	})
}

func (cr *FakeCredentialRepo) UpdateRole(_ context.Context, id string, role authz.RoleType) error {
	return cr.patch(id, func(c *credentials.Credential) {
		c.Role = role
	})
}

func (cr *FakeCredentialRepo) SetActive(_ context.Context, id string, active bool) error {
	return cr.patch(id, func(c *credentials.Credential) {
		c.IsActive = active
	})
}

func (cr *FakeCredentialRepo) SetRegistered(_ context.Context, id string, registered bool) error {
	return cr.patch(id, func(c *credentials.Credential) {
		c.IsRegistered = registered
	})
}

func (cr *FakeCredentialRepo) CountByRole(_ context.Context, role authz.RoleType) (int, error) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()

	count := 0
	for _, record := range cr.records {
		if record.Role == role {
			count++
		}
	}
	return count, nil
}

func (cr *FakeCredentialRepo) List(_ context.Context, offset, limit int) ([]*credentials.Credential, error) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()

	list := make([]*credentials.Credential, 0, len(cr.records))
	for _, record := range cr.records {
		clone := *record
		list = append(list, &clone)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].NormalizedName < list[j].NormalizedName })

	if offset >= len(list) {
		return []*credentials.Credential{}, nil
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return list[offset:end], nil
}

func (cr *FakeCredentialRepo) patch(id string, apply func(*credentials.Credential)) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()

	record, ok := cr.records[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	apply(record)
	record.UpdatedAt = time.Now()
	return nil
}
