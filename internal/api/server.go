// Package api provides the HTTP API server and handlers for Workbets.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/workbets/workbets-server/internal/ratelimit"
	"github.com/workbets/workbets-server/internal/sse"
	"github.com/workbets/workbets-server/internal/store"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// Options configures the HTTP surface.
type Options struct {
	AllowedOrigins    []string
	AuthRatePerMinute int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           store.Transactor
	services        *Services
	search          IndexStats // nil when search is disabled
	sseManager      *sse.Manager
	sseHandler      *sse.Handler
	router          *chi.Mux
	api             huma.API
	authRateLimiter *ratelimit.KeyedRateLimiter
	logger          *slog.Logger
}

// IndexStats reports the size of the search index for health checks.
type IndexStats interface {
	DocumentCount() (uint64, error)
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(
	st store.Transactor,
	services *Services,
	search IndexStats,
	sseManager *sse.Manager,
	opts Options,
	logger *slog.Logger,
) *Server {
	router := chi.NewRouter()

	s := &Server{
		store:           st,
		services:        services,
		search:          search,
		sseManager:      sseManager,
		sseHandler:      sse.NewHandler(sseManager, services.Auth, logger),
		router:          router,
		authRateLimiter: ratelimit.PerMinute(max(opts.AuthRatePerMinute, 1)),
		logger:          logger,
	}

	s.setupMiddleware(opts)

	humaConfig := huma.DefaultConfig("Workbets API", Version)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests.
func (s *Server) API() huma.API {
	return s.api
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.authRateLimiter.Stop()
}

func (s *Server) setupMiddleware(opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerDirectoryRoutes()
	s.registerWagerRoutes()
	s.registerProfileRoutes()

	// Streaming stays outside huma; it needs the raw ResponseWriter.
	s.router.Get("/api/v1/events", s.sseHandler.ServeHTTP)
}
