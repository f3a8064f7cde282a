package credentials

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/komunitas-dev/go-auth-core/authz"
)

// Credential is the durable record behind a login identity. The display name
// is the login handle and is unique case-insensitively. Records are never
// physically deleted by the auth core; accounts are disabled via IsActive.
type Credential struct {
	ID             string         `json:"id,omitempty"`   // Unique identifier for the identity
	Name           string         `json:"name,omitempty"` // Display name as entered at provisioning
	NormalizedName string         `json:"-"`              // Lowercased name used for uniqueness and lookup
	PasswordHash   string         `json:"-"`              // Salted PBKDF2 hash - never serialize
	Role           authz.RoleType `json:"role,omitempty"`
	IsRegistered   bool           `json:"is_registered"` // Distinguishes a provisioned identity from a usable one
	IsActive       bool           `json:"is_active"`     // Administrative enable/disable, independent of registration
	CreatedAt      time.Time      `json:"created_at,omitempty"`
	UpdatedAt      time.Time      `json:"updated_at,omitempty"`
}

// CanAuthenticate reports whether the record is allowed to log in at all,
// before any password check. A record that is not registered or not active
// must never authenticate regardless of password correctness.
func (c *Credential) CanAuthenticate() bool {
	return c.IsRegistered && c.IsActive
}

// NormalizeName lowercases and trims a display name for case-insensitive
// comparison and storage.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

const (
	minNameLength = 3
	maxNameLength = 64
)

// ValidateName checks that a display name is usable as a login handle.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < minNameLength {
		return fmt.Errorf("name must be at least %d characters long", minNameLength)
	}
	if len(trimmed) > maxNameLength {
		return fmt.Errorf("name must be at most %d characters long", maxNameLength)
	}
	for _, char := range trimmed {
		if unicode.IsControl(char) {
			return fmt.Errorf("name must not contain control characters")
		}
	}
	return nil
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}
