// Package api serves the iMangarr dashboard pages and the JSON API.
package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/zarko379/iMangarr-ng/internal/http/response"
	"github.com/zarko379/iMangarr-ng/internal/media/images"
	"github.com/zarko379/iMangarr-ng/internal/ratelimit"
	"github.com/zarko379/iMangarr-ng/internal/validation"
)

// Version is reported by the OpenAPI document and the health check.
var Version = "dev"

// Options configures a Server.
type Options struct {
	// Name is shown in page titles.
	Name string
	// CORSOrigins may call /api/v1 from a browser.
	CORSOrigins []string
	// SearchPerMinute bounds catalog searches per client IP. Zero disables the limit.
	SearchPerMinute int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services  *Services
	covers    *images.Storage
	events    http.Handler
	validator *validation.Validator
	limiter   *ratelimit.KeyedRateLimiter
	router    *chi.Mux
	api       huma.API
	name      string
	logger    *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
// covers may be nil when the cover cache is disabled.
func NewServer(services *Services, covers *images.Storage, events http.Handler, opts Options, logger *slog.Logger) *Server {
	if opts.Name == "" {
		opts.Name = "iMangarr"
	}

	s := &Server{
		services:  services,
		covers:    covers,
		events:    events,
		validator: validation.New(),
		router:    chi.NewRouter(),
		name:      opts.Name,
		logger:    logger,
	}
	if opts.SearchPerMinute > 0 {
		s.limiter = ratelimit.PerMinute(opts.SearchPerMinute)
	}

	s.setupMiddleware(opts.CORSOrigins)
	s.setupAPI()
	s.setupWebRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases the search limiter.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

func (s *Server) setupMiddleware(origins []string) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)

	// Only requests carrying an allowed Origin get CORS headers; same-origin
	// page requests pass through untouched. An empty list would mean "*".
	if len(origins) == 0 {
		return
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Last-Event-ID"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupAPI registers the huma operations and the event stream.
func (s *Server) setupAPI() {
	RegisterErrorHandler()

	config := huma.DefaultConfig("iMangarr API", Version)
	config.Info.Description = "Search AniList and manage the iMangarr watch list."
	config.Transformers = append(config.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, config)

	s.registerHealthRoutes()
	s.registerSearchRoutes()
	s.registerLibraryRoutes()
	s.registerSettingsRoutes()

	if s.events != nil {
		s.router.Get("/api/v1/events", s.events.ServeHTTP)
	}
	s.router.NotFound(s.handleNotFound)
}

// handleNotFound answers unknown /api paths with a JSON envelope and
// everything else with the plain text 404.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		response.NotFound(w, "no such endpoint", s.logger)
		return
	}
	http.NotFound(w, r)
}
