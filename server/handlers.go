package server

import (
	"encoding/json"
	"net/http"
	"time"

	apperrors "github.com/komunitas-dev/go-auth-core/internal/errors"
)

type loginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token      string    `json:"token,omitempty"`
	IdentityID string    `json:"identity_id"`
	Role       string    `json:"role"`
	Elevated   bool      `json:"elevated"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type passwordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type accountResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	IsRegistered bool   `json:"is_registered"`
	IsActive     bool   `json:"is_active"`
}

// LoginHandler exchanges a name and password for a session token.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		session, token, err := s.auth.Login(r.Context(), req.Name, req.Password)
		if err != nil {
			s.metrics.LoginAttempts.WithLabelValues(loginOutcome(err)).Inc()
			writeError(w, err)
			return
		}
		s.metrics.LoginAttempts.WithLabelValues("success").Inc()

		writeJSON(w, http.StatusOK, sessionResponse{
			Token:      token,
			IdentityID: session.IdentityID,
			Role:       string(session.Role),
			Elevated:   session.Elevated,
			ExpiresAt:  session.ExpiresAt,
		})
	}
}

// LogoutHandler revokes the presented session token. It succeeds even for
// tokens that are already expired or malformed, since the client is
// discarding the token regardless.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := s.auth.Logout(r.Context(), token); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// SessionCheckHandler validates the presented token and reports the session
// state. A refreshed sliding token, when issued, travels back in the
// X-Refreshed-Token header.
func (s *Server) SessionCheckHandler() http.HandlerFunc {
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

		writeJSON(w, http.StatusOK, sessionResponse{
			IdentityID: session.IdentityID,
			Role:       string(session.Role),
			Elevated:   session.Elevated,
			ExpiresAt:  session.ExpiresAt,
		})
	}
}

// RegisterHandler completes registration for a provisioned account, or
// self-registers a new member account when the name is unclaimed.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		credential, err := s.auth.Register(r.Context(), req.Name, req.Password)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, accountResponse{
			ID:           credential.ID,
			Name:         credential.Name,
			Role:         string(credential.Role),
			IsRegistered: credential.IsRegistered,
			IsActive:     credential.IsActive,
		})
	}
}

// PasswordChangeHandler changes the password of the authenticated identity.
func (s *Server) PasswordChangeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := SessionFromContext(r.Context())
		if session == nil {
			writeError(w, apperrors.ErrSessionInvalid)
			return
		}

		var req passwordChangeRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		if err := s.auth.ChangePassword(r.Context(), session, req.CurrentPassword, req.NewPassword); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func loginOutcome(err error) string {
	var retryErr *apperrors.RetryAfterError
	switch {
	case apperrors.As(err, &retryErr):
		return "rate_limited"
	case apperrors.Is(err, apperrors.ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "failure"
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.Wrapf(apperrors.ErrInvalidRequest, "malformed request body")
	}
	return nil
}
