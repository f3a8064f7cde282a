package server

import (
	"log"
	"net/http"

	"github.com/komunitas-dev/go-auth-core/auth"
	"github.com/komunitas-dev/go-auth-core/internal/config"
	"github.com/komunitas-dev/go-auth-core/internal/metrics"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Server is the HTTP surface over the auth core. It owns routing and
// request/response shapes; all security decisions live in the auth service
// and the authorization guard.
type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	auth     *auth.Service
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	log      zerolog.Logger
}

func New(config config.Config, authService *auth.Service, m *metrics.Metrics, registry *prometheus.Registry, logger zerolog.Logger) (*Server, error) {
	if authService == nil {
		return nil, errors.New("[Server.New] auth service is required")
	}
	if m == nil || registry == nil {
		return nil, errors.New("[Server.New] metrics are required")
	}

	s := &Server{
		mux:      http.NewServeMux(),
		config:   config,
		auth:     authService,
		metrics:  m,
		registry: registry,
		log:      logger,
	}
	s.env = config.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		log.Printf("[route] %s\n", route)
	}
}
