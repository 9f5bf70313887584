// Package server provides HTTP server management and lifecycle handling for
// the doselog API. It includes server setup, middleware configuration, route
// management, and graceful shutdown with proper error handling and logging.
package server

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sernyl/doselog-api/config"
	"github.com/sernyl/doselog-api/doselog"
	"github.com/sernyl/doselog-api/handlers"
	"github.com/sernyl/doselog-api/health"
	"github.com/sernyl/doselog-api/interfaces"
	"github.com/sernyl/doselog-api/logging"
	"github.com/sernyl/doselog-api/metrics"
)

// Server represents the HTTP server
type Server struct {
	server       *http.Server
	router       chi.Router
	catalogStore interfaces.CatalogStore
	doseStore    *doselog.Store
	config       *config.Config
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, catalogStore interfaces.CatalogStore, doseStore *doselog.Store) *Server {
	router := chi.NewRouter()

	server := &Server{
		server: &http.Server{
			Handler:      router,
			Addr:         cfg.Address + ":" + cfg.Port,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router:       router,
		catalogStore: catalogStore,
		doseStore:    doseStore,
		config:       cfg,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(RealIPMiddleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	s.router.Use(logging.LoggingMiddleware(logging.DefaultLoggingService.Logger))
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(metrics.Metrics)
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(RateLimitHandler)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	healthChecker := health.NewHealthChecker(s.catalogStore)

	// Parsing and classification
	s.router.Get("/parse", handlers.ParseDose())
	s.router.Get("/classify", handlers.ClassifyDose(s.catalogStore))
	s.router.Get("/safety/{substance}", handlers.SafetyLookup(s.catalogStore))

	// Reference data
	s.router.Get("/substances", handlers.ServeSubstances(s.catalogStore))
	s.router.Get("/substances/page/{pageNumber}", handlers.ServePagedSubstances(s.catalogStore))
	s.router.Get("/substances/search/{query}", handlers.SearchSubstances(s.catalogStore))
	s.router.Get("/routes", handlers.ServeRoutes())

	// Dose log
	s.router.Post("/doses", handlers.AddDose(s.doseStore))
	s.router.Get("/doses", handlers.ListDoses(s.doseStore))
	s.router.Get("/doses/stats", handlers.DoseStats(s.doseStore))
	s.router.Get("/doses/{id}", handlers.GetDose(s.doseStore))
	s.router.Put("/doses/{id}", handlers.UpdateDose(s.doseStore))
	s.router.Delete("/doses/{id}", handlers.DeleteDose(s.doseStore))
	s.router.Post("/doses/{id}/timestamps", handlers.AnnotateDose(s.doseStore))

	// Operational
	s.router.Get("/health", handlers.HealthCheck(healthChecker))
	s.router.Handle("/metrics", promhttp.Handler())
}

// Router exposes the configured router, primarily for tests that drive the
// full middleware and route chain without a listener.
func (s *Server) Router() chi.Router {
	return s.router
}

// Start starts the server
func (s *Server) Start() error {
	// Start profiling server if in development mode
	if s.config.Env == config.EnvDevelopment {
		s.startProfilingServer()
	}

	logging.Info(fmt.Sprintf("Starting server at: %s:%s", s.config.Address, s.config.Port))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}

// startProfilingServer starts the pprof profiling server in development mode
func (s *Server) startProfilingServer() {
	go func() {
		logging.Info("Profiling server started at http://localhost:6060/debug/pprof/")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			logging.Warn("Profiling server failed", "error", err)
		}
	}()
}
