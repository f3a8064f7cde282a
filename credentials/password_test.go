package credentials_test

import (
	"strings"
	"testing"

	"github.com/komunitas-dev/go-auth-core/credentials"
	"github.com/stretchr/testify/require"
)

func TestHasher_HashAndVerify(t *testing.T) {
	hasher := credentials.NewHasher(credentials.MinHashIterations)

	t.Run("round trip", func(t *testing.T) {
		stored, err := hasher.Hash("Secret123!")
		require.NoError(t, err)
		require.True(t, hasher.Verify("Secret123!", stored))
	})

	t.Run("case-variant password is rejected", func(t *testing.T) {
		stored, err := hasher.Hash("Secret123!")
		require.NoError(t, err)
		require.False(t, hasher.Verify("secret123!", stored))
	})

	t.Run("same plaintext hashes to different stored values", func(t *testing.T) {
		first, err := hasher.Hash("Secret123!")
		require.NoError(t, err)
		second, err := hasher.Hash("Secret123!")
		require.NoError(t, err)
		require.NotEqual(t, first, second)

		require.True(t, hasher.Verify("Secret123!", first))
		require.True(t, hasher.Verify("Secret123!", second))
	})

	t.Run("stored value embeds its iteration count", func(t *testing.T) {
		stored, err := hasher.Hash("Secret123!")
		require.NoError(t, err)

		// A hasher configured with a different iteration count still
		// verifies values written under the old parameters.
		newer := credentials.NewHasher(credentials.MinHashIterations * 2)
		require.True(t, newer.Verify("Secret123!", stored))
	})

	t.Run("iteration floor is enforced", func(t *testing.T) {
		weak := credentials.NewHasher(1)
		stored, err := weak.Hash("Secret123!")
		require.NoError(t, err)
		parts := strings.SplitN(stored, ":", 2)
		require.Equal(t, "10000", parts[0])
	})
}

func TestHasher_VerifyMalformedFailsClosed(t *testing.T) {
	hasher := credentials.NewHasher(credentials.MinHashIterations)

	malformed := []struct {
		name   string
		stored string
	}{
		{"empty", ""},
		{"no separators", "garbage"},
		{"too few parts", "10000:abcd"},
		{"too many parts", "10000:ab:cd:ef"},
		{"non-numeric iterations", "lots:abcd:ef01"},
		{"iterations below floor", "9999:abcd:ef01"},
		{"iterations absurdly high", "999999999:abcd:ef01"},
		{"bad salt hex", "10000:zzzz:ef01"},
		{"bad hash hex", "10000:abcd:zzzz"},
		{"empty salt", "10000::ef01"},
		{"empty hash", "10000:abcd:"},
	}

	for _, tc := range malformed {
		t.Run(tc.name, func(t *testing.T) {
			require.False(t, hasher.Verify("Secret123!", tc.stored))
		})
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	t.Run("accepts a compliant password", func(t *testing.T) {
		require.NoError(t, credentials.ValidatePasswordStrength("Secret123"))
	})

	t.Run("rejects short password", func(t *testing.T) {
		err := credentials.ValidatePasswordStrength("Ab1")
		require.Error(t, err)
		require.Contains(t, err.Error(), "at least 8 characters")
	})

	t.Run("rejects missing uppercase", func(t *testing.T) {
		err := credentials.ValidatePasswordStrength("secret123")
		require.Error(t, err)
		require.Contains(t, err.Error(), "uppercase")
	})

	t.Run("rejects missing digit", func(t *testing.T) {
		err := credentials.ValidatePasswordStrength("SecretPass")
		require.Error(t, err)
		require.Contains(t, err.Error(), "number")
	})
}

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "maria", credentials.NormalizeName("  Maria "))
	require.Equal(t, "maria", credentials.NormalizeName("MARIA"))
}

func TestValidateName(t *testing.T) {
	t.Run("accepts a normal handle", func(t *testing.T) {
		require.NoError(t, credentials.ValidateName("maria"))
	})

	t.Run("rejects too-short handle", func(t *testing.T) {
		require.Error(t, credentials.ValidateName("ab"))
	})

	t.Run("rejects control characters", func(t *testing.T) {
		require.Error(t, credentials.ValidateName("mar\x00ia"))
	})

	t.Run("rejects over-long handle", func(t *testing.T) {
		require.Error(t, credentials.ValidateName(strings.Repeat("a", 65)))
	})
}
