package server

import (
	"net/http"

	"github.com/komunitas-dev/go-auth-core/authz"
	apperrors "github.com/komunitas-dev/go-auth-core/internal/errors"
	"github.com/komunitas-dev/go-auth-core/internal/utils"
)

type provisionRequest struct {
	Name string  `json:"name"`
	Role *string `json:"role"` // defaults to member when omitted
}

type roleChangeRequest struct {
	Role string `json:"role"`
}

type activationRequest struct {
	Active bool `json:"active"`
}

// ProvisionHandler creates an account ahead of registration. The account is
// active but cannot authenticate until its owner completes registration.
func (s *Server) ProvisionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := SessionFromContext(r.Context())
		if actor == nil {
			writeError(w, apperrors.ErrSessionInvalid)
			return
		}

		var req provisionRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		role := authz.RoleMember
		if roleStr := utils.Value(req.Role); roleStr != "" {
			parsed, err := authz.ParseRole(roleStr)
			if err != nil {
				writeError(w, err)
				return
			}
			role = parsed
		}

		credential, err := s.auth.Provision(r.Context(), actor, req.Name, role)
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

// RoleChangeHandler assigns a new role to the target account.
func (s *Server) RoleChangeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := SessionFromContext(r.Context())
		if actor == nil {
			writeError(w, apperrors.ErrSessionInvalid)
			return
		}

		targetID := r.PathValue("id")
		if targetID == "" {
			writeError(w, apperrors.Wrapf(apperrors.ErrInvalidRequest, "missing account id"))
			return
		}

		var req roleChangeRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		newRole, err := authz.ParseRole(req.Role)
		if err != nil {
			writeError(w, err)
			return
		}

		if err := s.auth.ChangeRole(r.Context(), actor, targetID, newRole); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ActivationHandler enables or disables the target account.
func (s *Server) ActivationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := SessionFromContext(r.Context())
		if actor == nil {
			writeError(w, apperrors.ErrSessionInvalid)
			return
		}

		targetID := r.PathValue("id")
		if targetID == "" {
			writeError(w, apperrors.Wrapf(apperrors.ErrInvalidRequest, "missing account id"))
			return
		}

		var req activationRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		if err := s.auth.SetActive(r.Context(), actor, targetID, req.Active); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
