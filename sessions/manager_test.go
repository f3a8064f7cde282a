package sessions_test

import (
	"context"
	"testing"
	"time"

	"github.com/komunitas-dev/go-auth-core/authz"
	apperrors "github.com/komunitas-dev/go-auth-core/internal/errors"
	"github.com/komunitas-dev/go-auth-core/sessions"
	"github.com/stretchr/testify/require"
)

const testIdentityID = "identity-1"

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

type managerFixture struct {
	manager     *sessions.Manager
	revocations *sessions.InMemoryRevocationStore
	now         time.Time
}

func setupManagerFixture(t *testing.T, options ...sessions.ManagerOption) *managerFixture {
	t.Helper()

	f := &managerFixture{
		revocations: sessions.NewInMemoryRevocationStore(),
		now:         time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	opts := append([]sessions.ManagerOption{
		sessions.WithNowTime(func() time.Time { return f.now }),
	}, options...)
	manager, err := sessions.NewManager(testSigningKey, f.revocations, opts...)
	require.NoError(t, err)
	f.manager = manager
	return f
}

func TestNewManager_Validation(t *testing.T) {
	store := sessions.NewInMemoryRevocationStore()

	t.Run("rejects short signing key", func(t *testing.T) {
		_, err := sessions.NewManager([]byte("too-short"), store)
		require.Error(t, err)
	})

	t.Run("requires revocation store", func(t *testing.T) {
		_, err := sessions.NewManager(testSigningKey, nil)
		require.Error(t, err)
	})

	t.Run("rejects max lifetime shorter than TTL", func(t *testing.T) {
		_, err := sessions.NewManager(testSigningKey, store,
			sessions.WithTTL(time.Hour), sessions.WithMaxLifetime(time.Minute))
		require.Error(t, err)
	})
}

func TestManager_CreateAndValidate(t *testing.T) {
	f := setupManagerFixture(t)
	ctx := context.Background()

	session, token, err := f.manager.Create(testIdentityID, authz.RoleMember, false)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEmpty(t, session.ID)
	require.Equal(t, f.now.Add(30*time.Minute), session.ExpiresAt)

	t.Run("valid just inside the TTL", func(t *testing.T) {
		f.now = f.now.Add(29 * time.Minute)
		got, _, err := f.manager.Validate(ctx, token)
		require.NoError(t, err)
		require.Equal(t, testIdentityID, got.IdentityID)
		require.Equal(t, authz.RoleMember, got.Role)
		require.Equal(t, session.ID, got.ID)
	})

	t.Run("expired just past the TTL", func(t *testing.T) {
		f.now = f.now.Add(2 * time.Minute) // 31 minutes after issue
		_, _, err := f.manager.Validate(ctx, token)
		require.Error(t, err)
		require.True(t, apperrors.Is(err, apperrors.ErrSessionExpired))
	})
}

func TestManager_ValidateRejectsGarbage(t *testing.T) {
	f := setupManagerFixture(t)
	ctx := context.Background()

	t.Run("empty token", func(t *testing.T) {
		_, _, err := f.manager.Validate(ctx, "")
		require.True(t, apperrors.Is(err, apperrors.ErrSessionInvalid))
	})

	t.Run("not a token at all", func(t *testing.T) {
		_, _, err := f.manager.Validate(ctx, "not-a-token")
		require.True(t, apperrors.Is(err, apperrors.ErrSessionInvalid))
	})

	t.Run("token signed with a different key", func(t *testing.T) {
		otherKey := []byte("ffffffffffffffffffffffffffffffff")
		other, err := sessions.NewManager(otherKey, sessions.NewInMemoryRevocationStore(),
			sessions.WithNowTime(func() time.Time { return f.now }))
		require.NoError(t, err)

		_, token, err := other.Create(testIdentityID, authz.RoleMember, false)
		require.NoError(t, err)

		_, _, err = f.manager.Validate(ctx, token)
		require.True(t, apperrors.Is(err, apperrors.ErrSessionInvalid))
	})
}

func TestManager_SlidingExpiry(t *testing.T) {
	f := setupManagerFixture(t)
	ctx := context.Background()

	_, token, err := f.manager.Create(testIdentityID, authz.RoleMember, false)
	require.NoError(t, err)

	t.Run("activity extends the expiry and reissues the token", func(t *testing.T) {
		f.now = f.now.Add(20 * time.Minute)
		session, refreshed, err := f.manager.Validate(ctx, token)
		require.NoError(t, err)
		require.NotEmpty(t, refreshed)
		require.Equal(t, f.now.Add(30*time.Minute), session.ExpiresAt)
		token = refreshed
	})

	t.Run("extended session survives past the original expiry", func(t *testing.T) {
		f.now = f.now.Add(25 * time.Minute) // 45 minutes after first issue
		_, refreshed, err := f.manager.Validate(ctx, token)
		require.NoError(t, err)
		require.NotEmpty(t, refreshed)
		token = refreshed
	})

	t.Run("rapid consecutive requests do not reissue", func(t *testing.T) {
		f.now = f.now.Add(10 * time.Second)
		_, refreshed, err := f.manager.Validate(ctx, token)
		require.NoError(t, err)
		require.Empty(t, refreshed)
	})
}

func TestManager_SlidingCappedByMaxLifetime(t *testing.T) {
	f := setupManagerFixture(t,
		sessions.WithTTL(30*time.Minute),
		sessions.WithMaxLifetime(time.Hour),
	)
	ctx := context.Background()
	issuedAt := f.now

	session, token, err := f.manager.Create(testIdentityID, authz.RoleMember, false)
	require.NoError(t, err)
	require.Equal(t, issuedAt.Add(30*time.Minute), session.ExpiresAt)

	// Keep the session alive with activity inside each idle window.
	f.now = issuedAt.Add(25 * time.Minute)
	session, refreshed, err := f.manager.Validate(ctx, token)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed)
	require.Equal(t, issuedAt.Add(55*time.Minute), session.ExpiresAt)

	// Near the cap, sliding clamps to the hard stop instead of a full TTL.
	f.now = issuedAt.Add(45 * time.Minute)
	session, refreshed, err = f.manager.Validate(ctx, refreshed)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed)
	require.Equal(t, issuedAt.Add(time.Hour), session.ExpiresAt)

	// Past the cap, the session is expired no matter how active it was.
	f.now = issuedAt.Add(time.Hour + time.Second)
	_, _, err = f.manager.Validate(ctx, refreshed)
	require.Error(t, err)
	require.True(t, apperrors.Is(err, apperrors.ErrSessionExpired))
}

func TestManager_ElevatedSessions(t *testing.T) {
	f := setupManagerFixture(t)
	ctx := context.Background()
	issuedAt := f.now

	session, token, err := f.manager.Create(testIdentityID, authz.RoleAdmin, true)
	require.NoError(t, err)
	require.True(t, session.Elevated)
	require.Equal(t, issuedAt.Add(24*time.Hour), session.ExpiresAt)

	t.Run("no sliding reissue", func(t *testing.T) {
		f.now = issuedAt.Add(12 * time.Hour)
		got, refreshed, err := f.manager.Validate(ctx, token)
		require.NoError(t, err)
		require.Empty(t, refreshed)
		require.Equal(t, issuedAt.Add(24*time.Hour), got.ExpiresAt)
	})

	t.Run("expires at the fixed TTL", func(t *testing.T) {
		f.now = issuedAt.Add(24*time.Hour + time.Second)
		_, _, err := f.manager.Validate(ctx, token)
		require.True(t, apperrors.Is(err, apperrors.ErrSessionExpired))
	})
}

func TestManager_Revoke(t *testing.T) {
	f := setupManagerFixture(t)
	ctx := context.Background()

	_, token, err := f.manager.Create(testIdentityID, authz.RoleMember, false)
	require.NoError(t, err)

	t.Run("revoked token fails validation immediately", func(t *testing.T) {
		require.NoError(t, f.manager.Revoke(ctx, token))

		_, _, err := f.manager.Validate(ctx, token)
		require.Error(t, err)
		require.True(t, apperrors.Is(err, apperrors.ErrSessionInvalid))
	})

	t.Run("revoke is idempotent", func(t *testing.T) {
		require.NoError(t, f.manager.Revoke(ctx, token))
	})

	t.Run("revoking garbage is not an error", func(t *testing.T) {
		require.NoError(t, f.manager.Revoke(ctx, "not-a-token"))
		require.NoError(t, f.manager.Revoke(ctx, ""))
	})
}

func TestManager_RefreshRole(t *testing.T) {
	f := setupManagerFixture(t)
	ctx := context.Background()

	_, token, err := f.manager.Create(testIdentityID, authz.RoleMember, false)
	require.NoError(t, err)

	session, newToken, err := f.manager.RefreshRole(ctx, token, authz.RoleModerator)
	require.NoError(t, err)
	require.NotEmpty(t, newToken)
	require.Equal(t, authz.RoleModerator, session.Role)

	// The old token must be dead the moment the new one exists.
	_, _, err = f.manager.Validate(ctx, token)
	require.Error(t, err)
	require.True(t, apperrors.Is(err, apperrors.ErrSessionInvalid))

	got, _, err := f.manager.Validate(ctx, newToken)
	require.NoError(t, err)
	require.Equal(t, authz.RoleModerator, got.Role)
}

func TestInMemoryRevocationStore(t *testing.T) {
	ctx := context.Background()
	store := sessions.NewInMemoryRevocationStore()

	revoked, err := store.IsRevoked(ctx, "sid-1")
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "sid-1", time.Hour))
	revoked, err = store.IsRevoked(ctx, "sid-1")
	require.NoError(t, err)
	require.True(t, revoked)
}
