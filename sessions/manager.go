// Package sessions owns the session lifecycle: issue, validate, refresh,
// revoke. The session itself travels as a signed client-held token; the only
// server-side state is the revocation list. No other component constructs or
// mutates session fields.
package sessions

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/komunitas-dev/go-auth-core/authz"
	apperrors "github.com/komunitas-dev/go-auth-core/internal/errors"
	"github.com/pkg/errors"
)

const (
	minSigningKeyLength = 32
	// minSlideInterval bounds how often a sliding session is reissued so
	// rapid request bursts do not mint a token per request.
	minSlideInterval = time.Minute
	// minRevocationTTL keeps a revocation entry alive briefly even for
	// tokens at the edge of expiry, covering clock skew between instances.
	minRevocationTTL = time.Minute
)

type sessionClaims struct {
	IdentityID     string `json:"uid"`
	Role           string `json:"role"`
	Elevated       bool   `json:"elv,omitempty"`
	OriginIssuedAt int64  `json:"oia"`
	jwt.RegisteredClaims
}

// Manager issues and validates session tokens. Standard sessions slide their
// expiry forward on activity up to a hard maximum lifetime from first
// issuance; elevated sessions run on a fixed longer TTL and never slide.
type Manager struct {
	signingKey  []byte
	revocations RevocationStore
	ttl         time.Duration
	elevatedTTL time.Duration
	maxLifetime time.Duration
	sliding     bool
	nowTime     func() time.Time
}

// ManagerOption modifies a Manager at construction time.
type ManagerOption func(*Manager)

// WithTTL sets the standard session TTL (also the idle window for sliding sessions).
func WithTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) { m.ttl = ttl }
}

// WithElevatedTTL sets the fixed TTL for elevated administrative sessions.
func WithElevatedTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) { m.elevatedTTL = ttl }
}

// WithMaxLifetime sets the hard cap on sliding extension, from first issuance.
func WithMaxLifetime(max time.Duration) ManagerOption {
	return func(m *Manager) { m.maxLifetime = max }
}

// WithSliding enables or disables sliding expiration on validation.
func WithSliding(sliding bool) ManagerOption {
	return func(m *Manager) { m.sliding = sliding }
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) { m.nowTime = nowFunc }
}

// NewManager creates a session Manager. The signing key must be at least 32
// bytes; the revocation store is required for revoke-before-expiry semantics.
func NewManager(signingKey []byte, revocations RevocationStore, options ...ManagerOption) (*Manager, error) {
	if len(signingKey) < minSigningKeyLength {
		return nil, errors.Errorf("[NewManager] signing key must be at least %d bytes", minSigningKeyLength)
	}
	if revocations == nil {
		return nil, errors.New("[NewManager] revocation store is required")
	}

	manager := &Manager{
		signingKey:  signingKey,
		revocations: revocations,
		ttl:         30 * time.Minute,
		elevatedTTL: 24 * time.Hour,
		maxLifetime: 8 * time.Hour,
		sliding:     true,
		nowTime:     time.Now,
	}
	for _, opt := range options {
		opt(manager)
	}
	if manager.ttl <= 0 || manager.elevatedTTL <= 0 {
		return nil, errors.New("[NewManager] session TTLs must be positive")
	}
	if manager.maxLifetime < manager.ttl {
		return nil, errors.New("[NewManager] max lifetime must be at least the session TTL")
	}
	return manager, nil
}

// Create issues a new session for identityID with the given role snapshot.
// It returns the session view and the signed token to hand to the client.
func (m *Manager) Create(identityID string, role authz.RoleType, elevated bool) (*Session, string, error) {
	if identityID == "" {
		return nil, "", errors.New("[Manager.Create] identityID is required")
	}
	if !role.Valid() {
		return nil, "", errors.Errorf("[Manager.Create] invalid role %q", role)
	}

	now := m.nowTime()
	ttl := m.ttl
	if elevated {
		ttl = m.elevatedTTL
	}
	session := &Session{
		ID:             uuid.New().String(),
		IdentityID:     identityID,
		Role:           role,
		Elevated:       elevated,
		IssuedAt:       now,
		ExpiresAt:      now.Add(ttl),
		LastActivityAt: now,
	}
	token, err := m.sign(session)
	if err != nil {
		return nil, "", err
	}
	return session, token, nil
}

// Validate checks a token and returns the session it represents. All failure
// paths fail closed: absent, unparseable, expired, or revoked tokens -- and
// revocation-store errors -- all yield an error, never a guest fallback.
//
// When sliding is enabled and the session is not elevated, Validate also
// extends the expiry and returns a refreshed token; the returned string is
// empty when no reissue happened.
func (m *Manager) Validate(ctx context.Context, token string) (*Session, string, error) {
	session, claims, err := m.parse(token)
	if err != nil {
		return nil, "", err
	}

	now := m.nowTime()
	revoked, err := m.revocations.IsRevoked(ctx, session.ID)
	if err != nil {
		return nil, "", apperrors.Wrapf(apperrors.ErrSessionInvalid, "[Manager.Validate] revocation check: %v", err)
	}
	if revoked {
		return nil, "", apperrors.Wrapf(apperrors.ErrSessionInvalid, "[Manager.Validate] session revoked")
	}

	if !m.sliding || claims.Elevated {
		return session, "", nil
	}
	if now.Sub(session.LastActivityAt) < minSlideInterval {
		return session, "", nil
	}

	hardStop := session.IssuedAt.Add(m.maxLifetime)
	newExpiry := now.Add(m.ttl)
	if newExpiry.After(hardStop) {
		newExpiry = hardStop
	}
	if !newExpiry.After(session.ExpiresAt) {
		return session, "", nil
	}

	session.LastActivityAt = now
	session.ExpiresAt = newExpiry
	refreshed, err := m.sign(session)
	if err != nil {
		return nil, "", err
	}
	return session, refreshed, nil
}

// Revoke marks the session behind token unusable immediately. It is
// idempotent and tolerant: an unparseable or already-expired token is not an
// error, there is simply nothing left to revoke.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, m.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || claims.ID == "" {
		return nil
	}

	ttl := minRevocationTTL
	if claims.ExpiresAt != nil {
		if remaining := claims.ExpiresAt.Time.Sub(m.nowTime()); remaining > ttl {
			ttl = remaining
		}
	}
	if err := m.revocations.Revoke(ctx, claims.ID, ttl); err != nil {
		return apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[Manager.Revoke] revocation store: %v", err)
	}
	return nil
}

// RefreshRole reissues the session behind token with a new role snapshot and
// revokes the old session id. Used when an administrative action changes a
// role mid-session and the caller wants the change to take effect now rather
// than at natural expiry.
func (m *Manager) RefreshRole(ctx context.Context, token string, newRole authz.RoleType) (*Session, string, error) {
	if !newRole.Valid() {
		return nil, "", apperrors.Wrapf(apperrors.ErrInvalidRequest, "[Manager.RefreshRole] role %q", newRole)
	}
	session, _, err := m.parse(token)
	if err != nil {
		return nil, "", err
	}

	if err := m.revocations.Revoke(ctx, session.ID, m.revocationTTL(session)); err != nil {
		return nil, "", apperrors.Wrapf(apperrors.ErrStoreUnavailable, "[Manager.RefreshRole] revocation store: %v", err)
	}
	return m.Create(session.IdentityID, newRole, session.Elevated)
}

func (m *Manager) revocationTTL(session *Session) time.Duration {
	ttl := session.ExpiresAt.Sub(m.nowTime())
	if ttl < minRevocationTTL {
		ttl = minRevocationTTL
	}
	return ttl
}

func (m *Manager) parse(token string) (*Session, *sessionClaims, error) {
	if token == "" {
		return nil, nil, apperrors.Wrapf(apperrors.ErrSessionInvalid, "[Manager.parse] empty token")
	}
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, m.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.nowTime),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, nil, apperrors.Wrapf(apperrors.ErrSessionExpired, "[Manager.parse] %v", err)
		}
		return nil, nil, apperrors.Wrapf(apperrors.ErrSessionInvalid, "[Manager.parse] %v", err)
	}

	role := authz.RoleType(claims.Role)
	if !role.Valid() || claims.ID == "" || claims.IdentityID == "" ||
		claims.IssuedAt == nil || claims.ExpiresAt == nil || claims.OriginIssuedAt == 0 {
		return nil, nil, apperrors.Wrapf(apperrors.ErrSessionInvalid, "[Manager.parse] malformed claims")
	}

	session := &Session{
		ID:             claims.ID,
		IdentityID:     claims.IdentityID,
		Role:           role,
		Elevated:       claims.Elevated,
		IssuedAt:       time.Unix(claims.OriginIssuedAt, 0),
		ExpiresAt:      claims.ExpiresAt.Time,
		LastActivityAt: claims.IssuedAt.Time,
	}
	if !session.Elevated && !m.nowTime().Before(session.IssuedAt.Add(m.maxLifetime)) {
		return nil, nil, apperrors.Wrapf(apperrors.ErrSessionExpired, "[Manager.parse] max lifetime exceeded")
	}
	return session, claims, nil
}

func (m *Manager) sign(session *Session) (string, error) {
	claims := &sessionClaims{
		IdentityID:     session.IdentityID,
		Role:           string(session.Role),
		Elevated:       session.Elevated,
		OriginIssuedAt: session.IssuedAt.Unix(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			IssuedAt:  jwt.NewNumericDate(session.LastActivityAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.signingKey)
	if err != nil {
		return "", errors.Wrap(err, "[Manager.sign] SignedString")
	}
	return token, nil
}

func (m *Manager) keyFunc(*jwt.Token) (interface{}, error) {
	return m.signingKey, nil
}
