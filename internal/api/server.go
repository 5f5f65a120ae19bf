// Package api serves the per-user MoodTrail store over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/moodtrail/moodtrail/internal/auth"
	"github.com/moodtrail/moodtrail/internal/ratelimit"
	"github.com/moodtrail/moodtrail/internal/service"
	"github.com/moodtrail/moodtrail/internal/store"
)

// Version is reported in the OpenAPI document and the health check.
const Version = "1.0.0"

// Services groups the business services the handlers call.
type Services struct {
	Tag     *service.TagService
	Action  *service.ActionService
	CheckIn *service.CheckInService
	Insight *service.InsightService
}

// Options tunes the HTTP layer. Zero values disable the optional pieces.
type Options struct {
	CORSOrigins []string
	// Limiter throttles authenticated requests per user. Nil disables limiting.
	Limiter *ratelimit.KeyedRateLimiter
	// Metrics records request counters; nil installs a private registry.
	Metrics *Metrics
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    store.Repository
	services *Services
	tokens   *auth.TokenService
	limiter  *ratelimit.KeyedRateLimiter
	metrics  *Metrics
	router   chi.Router
	api      huma.API
	logger   *slog.Logger
}

// NewServer creates the server with all routes registered.
func NewServer(st store.Repository, services *Services, tokens *auth.TokenService, opts Options, logger *slog.Logger) *Server {
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(nil)
	}

	s := &Server{
		store:    st,
		services: services,
		tokens:   tokens,
		limiter:  opts.Limiter,
		metrics:  opts.Metrics,
		router:   chi.NewRouter(),
		logger:   logger,
	}

	s.setupMiddleware(opts.CORSOrigins)

	humaConfig := huma.DefaultConfig("MoodTrail API", Version)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.router.Handle("/metrics", s.metrics.Handler())
	s.registerHealthRoutes()
	s.registerTagRoutes()
	s.registerActionRoutes()
	s.registerCheckInRoutes()
	s.registerInsightRoutes()

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

func (s *Server) setupMiddleware(origins []string) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.metrics.Middleware)

	if len(origins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	s.router.Use(authMiddleware(s.tokens))
	if s.limiter != nil {
		s.router.Use(rateLimitMiddleware(s.limiter, s.logger))
	}
}

// requestLogger logs each request at debug level through slog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
