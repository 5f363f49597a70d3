// Package server provides the HTTP server and routing for the risk engine.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/sentinel-risk/internal/di"
	riskhandlers "github.com/aristath/sentinel-risk/internal/modules/risk/handlers"
)

// Config holds server configuration
type Config struct {
	Log            zerolog.Logger
	Container      *di.Container
	Jobs           *di.JobInstances
	Port           int
	DevMode        bool
	RequestTimeout time.Duration
}

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	container *di.Container
	jobs      *di.JobInstances
	started   time.Time
	port      int
	devMode   bool
	timeout   time.Duration
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		container: cfg.Container,
		jobs:      cfg.Jobs,
		started:   time.Now(),
		port:      cfg.Port,
		devMode:   cfg.DevMode,
		timeout:   cfg.RequestTimeout,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware shared by every route
func (s *Server) setupMiddleware() {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", s.container.Metrics.Handler())

	cfg := s.container.Config
	riskHandler := riskhandlers.NewHandler(riskhandlers.Services{
		Bus:           s.container.Bus,
		Store:         s.container.PositionStore,
		Factors:       s.container.Factors,
		Concentration: s.container.Concentration,
		Correlation:   s.container.Correlation,
		Stress:        s.container.Stress,
		MonteCarlo:    s.container.MonteCarlo,
		Regime:        s.container.Regime,
		BlackSwan:     s.container.BlackSwan,
		Reports:       s.container.Reports,
	}, riskhandlers.Config{
		SimulateRPS:   cfg.RateLimit.SimulateRPS,
		SimulateBurst: cfg.RateLimit.SimulateBurst,
		Paths:         cfg.MonteCarlo.Paths,
		HorizonDays:   cfg.MonteCarlo.HorizonDays,
		Confidence:    cfg.MonteCarlo.Confidence,
	}, s.log)

	s.router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.timeout))
			if !s.devMode {
				r.Use(middleware.Compress(5))
			}

			riskHandler.RegisterRoutes(r)

			r.Get("/system/status", s.handleSystemStatus)
			r.Post("/jobs/{name}", s.handleTriggerJob)
		})

		// Long-lived websocket, no request timeout
		riskHandler.RegisterStreamRoutes(r)
	})
}

// Handler exposes the router for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
