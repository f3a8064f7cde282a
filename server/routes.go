package server

import (
	"net/http"

	"github.com/komunitas-dev/go-auth-core/authz"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	RouteAuthLogin    = "/auth/login"
	RouteAuthLogout   = "/auth/logout"
	RouteAuthSession  = "/auth/session"
	RouteAuthRegister = "/auth/register"
	RouteAuthPassword = "/auth/password"

	RouteAdminAccounts          = "/admin/accounts"
	RouteAdminAccountRole       = "/admin/accounts/{id}/role"
	RouteAdminAccountActivation = "/admin/accounts/{id}/active"

	RouteHealthz = "/healthz"
	RouteMetrics = "/metrics"
)

func (s *Server) initRoutes() {
	// AUTH
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAuthSession, ChainMiddleware(s.SessionCheckHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthRegister, ChainMiddleware(s.RegisterHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthPassword,
		ChainMiddleware(s.PasswordChangeHandler(), s.ProtectedMiddleware()...))

	// Admin routes (require an elevated session with the matching capability)
	s.RegisterRouteHandler("POST "+RouteAdminAccounts,
		ChainMiddleware(s.ProvisionHandler(), s.ProtectedMiddleware(s.RequireCapability(authz.CapabilityProvisionAccounts))...))
	s.RegisterRouteHandler("POST "+RouteAdminAccountRole,
		ChainMiddleware(s.RoleChangeHandler(), s.ProtectedMiddleware(s.RequireCapability(authz.CapabilityChangeRoles))...))
	s.RegisterRouteHandler("POST "+RouteAdminAccountActivation,
		ChainMiddleware(s.ActivationHandler(), s.ProtectedMiddleware(s.RequireCapability(authz.CapabilityToggleActivation))...))

	// Operational
	s.RegisterRouteFunc("GET "+RouteHealthz, s.HealthzHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics,
		promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
}

// HealthzHandler reports process liveness.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
