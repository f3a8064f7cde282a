package sessions

import (
	"time"

	"github.com/komunitas-dev/go-auth-core/authz"
)

// Session is the server-side view of a validated session token. The token
// held by the client is the source of truth for these fields; Session values
// are derived from it on every validation, never stored or mutated directly
// by other components.
type Session struct {
	ID             string         // High-entropy session identifier, used by the revocation list
	IdentityID     string         // Credential record this session is bound to
	Role           authz.RoleType // Role snapshot taken at issuance, not re-derived per request
	Elevated       bool           // Administrative flow with the longer fixed TTL
	IssuedAt       time.Time      // First issuance; sliding extensions keep this fixed
	ExpiresAt      time.Time
	LastActivityAt time.Time
}
