package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/komunitas-dev/go-auth-core/authz"
	apperrors "github.com/komunitas-dev/go-auth-core/internal/errors"
	"github.com/komunitas-dev/go-auth-core/sessions"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeySession stores the validated session for the request
const ContextKeySession ContextKey = "session"

// RefreshedTokenHeader carries a reissued sliding-session token back to the
// client, which must replace its stored token with it.
const RefreshedTokenHeader = "X-Refreshed-Token"

// RequireSession validates the Bearer token and injects the session into the
// request context. Validation failures end the request with 401; there is no
// anonymous fallback.
func (s *Server) RequireSession() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				s.metrics.SessionValidations.WithLabelValues("invalid").Inc()
				writeError(w, err)
				return
			}

			session, refreshed, err := s.auth.Validate(r.Context(), token)
			if err != nil {
				outcome := "invalid"
				if apperrors.Is(err, apperrors.ErrSessionExpired) {
					outcome = "expired"
				}
				s.metrics.SessionValidations.WithLabelValues(outcome).Inc()
				writeError(w, err)
				return
			}
			s.metrics.SessionValidations.WithLabelValues("valid").Inc()
			if refreshed != "" {
				w.Header().Set(RefreshedTokenHeader, refreshed)
			}

			ctx := context.WithValue(r.Context(), ContextKeySession, session)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireCapability gates a route on the authorization guard. Must run after
// RequireSession.
func (s *Server) RequireCapability(capability authz.Capability) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			session := SessionFromContext(r.Context())
			if session == nil {
				writeError(w, apperrors.ErrSessionInvalid)
				return
			}
			if !authz.Authorize(session.Role, capability) {
				s.log.Warn().
					Str("identity_id", session.IdentityID).
					Str("role", string(session.Role)).
					Str("capability", string(capability)).
					Msg("capability denied")
				writeError(w, apperrors.ErrForbidden)
				return
			}
			next(w, r)
		}
	}
}

// SessionFromContext returns the validated session stored by RequireSession,
// or nil when the request is unauthenticated.
func SessionFromContext(ctx context.Context) *sessions.Session {
	session, _ := ctx.Value(ContextKeySession).(*sessions.Session)
	return session
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", apperrors.Wrapf(apperrors.ErrSessionInvalid, "[bearerToken] missing Authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", apperrors.Wrapf(apperrors.ErrSessionInvalid, "[bearerToken] malformed Authorization header")
	}
	return parts[1], nil
}
