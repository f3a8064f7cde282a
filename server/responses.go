package server

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	apperrors "github.com/komunitas-dev/go-auth-core/internal/errors"
)

type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
	RetryAfter  int    `json:"retry_after_seconds,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the core error taxonomy onto HTTP statuses. Unknown
// identifier, wrong password, and disabled account collapse into one generic
// 401 so the response does not confirm whether an account exists; the
// precise reason is already in the security event log. An expired or invalid
// session is "unauthenticated" (401), a valid session lacking the role is
// "forbidden" (403), and they never blur into each other.
func writeError(w http.ResponseWriter, err error) {
	var retryErr *apperrors.RetryAfterError
	switch {
	case apperrors.As(err, &retryErr):
		seconds := int(math.Ceil(retryErr.RetryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		writeJSON(w, http.StatusTooManyRequests, errorResponse{
			Error:       "rate_limited",
			Description: "too many attempts, try again later",
			RetryAfter:  seconds,
		})
	case apperrors.Is(err, apperrors.ErrInvalidCredentials), apperrors.Is(err, apperrors.ErrAccountDisabled):
		writeJSON(w, http.StatusUnauthorized, errorResponse{
			Error:       "invalid_credentials",
			Description: "invalid name or password",
		})
	case apperrors.Is(err, apperrors.ErrSessionExpired):
		writeJSON(w, http.StatusUnauthorized, errorResponse{
			Error:       "session_expired",
			Description: "session expired, log in again",
		})
	case apperrors.Is(err, apperrors.ErrSessionInvalid):
		writeJSON(w, http.StatusUnauthorized, errorResponse{
			Error:       "session_invalid",
			Description: "missing or invalid session",
		})
	case apperrors.Is(err, apperrors.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{
			Error:       "forbidden",
			Description: "insufficient privileges",
		})
	case apperrors.Is(err, apperrors.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error: "not_found",
		})
	case apperrors.Is(err, apperrors.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:       "conflict",
			Description: "name already in use",
		})
	case apperrors.Is(err, apperrors.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:       "invalid_request",
			Description: err.Error(),
		})
	case apperrors.Is(err, apperrors.ErrStoreUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error:       "service_unavailable",
			Description: "temporary failure, retry",
		})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: "internal_error",
		})
	}
}
