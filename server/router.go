package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jonwraymond/chatops/auth"
	"github.com/jonwraymond/chatops/cache"
	"github.com/jonwraymond/chatops/health"
	"github.com/jonwraymond/chatops/observe"
)

// Config configures the HTTP router.
type Config struct {
	// CORSOrigins lists allowed origins. "*" allows any.
	CORSOrigins []string

	// HSTS enables Strict-Transport-Security.
	HSTS bool

	// Metrics serves GET /metrics when non-nil.
	Metrics http.Handler

	// Admin enables the admin routes when non-nil. Cache is required with it.
	Admin *auth.JWTAuthenticator
	Cache *cache.Facade

	// Logger logs requests and recovered panics. Default: no-op
	Logger observe.Logger
}

// NewRouter returns the HTTP handler for the service. Health routes are
// mounted at /health.
func NewRouter(endpoints *health.Endpoints, cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = observe.Nop()
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog(logger))
	r.Use(recoverer(logger))
	r.Use(securityHeaders(cfg.HSTS))
	r.Use(cors(cfg.CORSOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	r.Mount("/health", health.Routes(endpoints))
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}
	if cfg.Admin != nil && cfg.Cache != nil {
		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.Middleware(cfg.Admin, auth.RoleAdmin, logger))
			r.Post("/cache/clear", clearCache(cfg.Cache, logger))
		})
	}
	return r
}
