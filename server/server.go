package server

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/jrsteele09/academy-storefront/backend"
	"github.com/jrsteele09/academy-storefront/internal/config"
	"github.com/jrsteele09/academy-storefront/internal/metrics"
	"github.com/jrsteele09/academy-storefront/session"
	"github.com/rs/zerolog/log"
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(r *http.Request) error

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	api      *backend.API
	sessions *session.Registry
	cookies  sessions.Store
	metrics  *metrics.Metrics
	validate *validator.Validate
	health   map[string]HealthCheck

	errorTmpl *template.Template
}

// Option configures a Server.
type Option func(*Server)

// WithHealthCheck adds a named check to GET /healthz.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(s *Server) {
		s.health[name] = check
	}
}

// New wires the storefront. api must be unbound; each request binds it to the
// visitor's session store taken from registry.
func New(cfg config.Config, api *backend.API, registry *session.Registry, m *metrics.Metrics, opts ...Option) (*Server, error) {
	if api == nil || registry == nil {
		return nil, fmt.Errorf("[server.New] backend API and session registry are required")
	}
	if cfg.GetEnv() != "DEV" && cfg.GetSessionSecret() == config.DefaultSessionSecret {
		return nil, fmt.Errorf("[server.New] SESSION_SECRET must be set outside DEV")
	}

	s := &Server{
		env:      cfg.GetEnv(),
		mux:      http.NewServeMux(),
		config:   cfg,
		api:      api,
		sessions: registry,
		cookies:  newCookieStore(cfg),
		metrics:  m,
		validate: newValidator(),
		health:   make(map[string]HealthCheck),
	}
	for _, opt := range opts {
		opt(s)
	}

	errorTmpl, err := ParseTemplate("error.html")
	if err != nil {
		return nil, fmt.Errorf("[server.New] parse error template: %w", err)
	}
	s.errorTmpl = errorTmpl

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
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colouredMethod(method), path)
}

func logError(method, path, error string) {
	log.Error().Msgf("[%-19s] %s %s", colouredMethod(method), path, Red+error+ResetColor)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
