package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/komunitas-dev/go-auth-core/authz"
	"github.com/komunitas-dev/go-auth-core/credentials"
	apperrors "github.com/komunitas-dev/go-auth-core/internal/errors"
	"github.com/pkg/errors"
)

const uniqueViolation = "23505"

var _ credentials.Repo = (*CredentialRepo)(nil)

// CredentialRepo stores credential records in the credentials table.
type CredentialRepo struct {
	pool *pgxpool.Pool
}

func NewCredentialRepo(pool *pgxpool.Pool) *CredentialRepo {
	return &CredentialRepo{pool: pool}
}

func (cr *CredentialRepo) Create(ctx context.Context, credential *credentials.Credential) error {
	if credential.NormalizedName == "" {
		credential.NormalizedName = credentials.NormalizeName(credential.Name)
	}
	_, err := cr.pool.Exec(ctx, `
		INSERT INTO credentials (id, name, normalized_name, password_hash, role, is_registered, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		credential.ID, credential.Name, credential.NormalizedName, credential.PasswordHash,
		string(credential.Role), credential.IsRegistered, credential.IsActive,
		credential.CreatedAt, credential.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperrors.Wrapf(apperrors.ErrConflict, "[CredentialRepo.Create] name %q", credential.NormalizedName)
		}
		return errors.Wrap(err, "[CredentialRepo.Create] insert")
	}
	return nil
}

func (cr *CredentialRepo) GetByID(ctx context.Context, id string) (*credentials.Credential, error) {
	return cr.get(ctx, `WHERE id = $1`, id)
}

func (cr *CredentialRepo) GetByName(ctx context.Context, normalizedName string) (*credentials.Credential, error) {
	return cr.get(ctx, `WHERE normalized_name = $1`, normalizedName)
}

func (cr *CredentialRepo) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	return cr.patch(ctx, `UPDATE credentials SET password_hash = $2, updated_at = now() WHERE id = $1`, id, passwordHash)
}

func (cr *CredentialRepo) UpdateRole(ctx context.Context, id string, role authz.RoleType) error {
	return cr.patch(ctx, `UPDATE credentials SET role = $2, updated_at = now() WHERE id = $1`, id, string(role))
}

func (cr *CredentialRepo) SetActive(ctx context.Context, id string, active bool) error {
	return cr.patch(ctx, `UPDATE credentials SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
}

func (cr *CredentialRepo) SetRegistered(ctx context.Context, id string, registered bool) error {
	return cr.patch(ctx, `UPDATE credentials SET is_registered = $2, updated_at = now() WHERE id = $1`, id, registered)
}

func (cr *CredentialRepo) CountByRole(ctx context.Context, role authz.RoleType) (int, error) {
	var count int
	err := cr.pool.QueryRow(ctx, `SELECT count(*) FROM credentials WHERE role = $1`, string(role)).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "[CredentialRepo.CountByRole] query")
	}
	return count, nil
}

func (cr *CredentialRepo) List(ctx context.Context, offset, limit int) ([]*credentials.Credential, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := cr.pool.Query(ctx, `
		SELECT id, name, normalized_name, password_hash, role, is_registered, is_active, created_at, updated_at
		FROM credentials ORDER BY normalized_name OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, errors.Wrap(err, "[CredentialRepo.List] query")
	}
	defer rows.Close()

	list := make([]*credentials.Credential, 0)
	for rows.Next() {
		credential, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, credential)
	}
	return list, errors.Wrap(rows.Err(), "[CredentialRepo.List] rows")
}

func (cr *CredentialRepo) get(ctx context.Context, where string, arg any) (*credentials.Credential, error) {
	row := cr.pool.QueryRow(ctx, `
		SELECT id, name, normalized_name, password_hash, role, is_registered, is_active, created_at, updated_at
		FROM credentials `+where, arg)
	credential, err := scanCredential(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return credential, nil
}

func (cr *CredentialRepo) patch(ctx context.Context, query string, args ...any) error {
	tag, err := cr.pool.Exec(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "[CredentialRepo.patch] exec")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row rowScanner) (*credentials.Credential, error) {
	credential := &credentials.Credential{}
	var role string
	err := row.Scan(
		&credential.ID, &credential.Name, &credential.NormalizedName, &credential.PasswordHash,
		&role, &credential.IsRegistered, &credential.IsActive,
		&credential.CreatedAt, &credential.UpdatedAt,
	)
	if err != nil {
		return nil, errors.Wrap(err, "[scanCredential] scan")
	}
	credential.Role = authz.RoleType(role)
	return credential, nil
}
