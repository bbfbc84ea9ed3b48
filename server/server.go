// Package server provides HTTP server setup and lifecycle handling for the
// remedies API: middleware wiring, routes and graceful shutdown.
package server

import (
	"context"
	"errors"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/remedesfr/remedes-api/allergy"
	"github.com/remedesfr/remedes-api/config"
	"github.com/remedesfr/remedes-api/handlers"
	"github.com/remedesfr/remedes-api/history"
	"github.com/remedesfr/remedes-api/interfaces"
	"github.com/remedesfr/remedes-api/logging"
	"github.com/remedesfr/remedes-api/matching"
	"github.com/remedesfr/remedes-api/metrics"
)

// Server represents the HTTP server and its collaborators.
type Server struct {
	server  *http.Server
	router  chi.Router
	config  *config.Config
	limiter *RateLimiter
	deps    Dependencies
}

// Dependencies bundles the services the routes need.
type Dependencies struct {
	DataStore interfaces.DataStore
	Engine    *matching.Engine
	Filter    *allergy.FilterService
	Searches  *history.Store
	Health    interfaces.HealthChecker
}

// NewServer creates a server instance with middleware and routes configured.
func NewServer(cfg *config.Config, deps Dependencies) *Server {
	router := chi.NewRouter()

	s := &Server{
		server: &http.Server{
			Handler:      router,
			Addr:         cfg.Address + ":" + cfg.Port,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router:  router,
		config:  cfg,
		limiter: NewRateLimiter(),
		deps:    deps,
	}

	s.limiter.StartCleanup()
	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(RealIPMiddleware)
	if logging.DefaultLoggingService != nil {
		s.router.Use(logging.LoggingMiddleware(logging.DefaultLoggingService.Logger))
	}
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(metrics.Metrics)
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(s.limiter.RateLimitMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/remedies", handlers.ServeAllRemedies(s.deps.DataStore))
	s.router.Get("/remedies/{pageNumber}", handlers.ServePagedRemedies(s.deps.DataStore))
	s.router.Get("/remedy/{slug}", handlers.FindRemedyBySlug(s.deps.DataStore))
	s.router.Get("/search", handlers.SearchRemedies(s.deps.DataStore, s.deps.Engine, s.deps.Filter, s.deps.Searches))

	s.router.Get("/allergens", handlers.ServeAllergens(s.deps.DataStore))
	s.router.Get("/allergen/{id}", handlers.FindAllergenByID(s.deps.DataStore))

	s.router.Get("/allergies", handlers.GetAllergyState(s.deps.Filter))
	s.router.Post("/allergies/toggle/{id}", handlers.ToggleAllergy(s.deps.DataStore, s.deps.Filter))
	s.router.Post("/allergies/filtering/toggle", handlers.ToggleAllergyFiltering(s.deps.Filter))
	s.router.Delete("/allergies", handlers.ClearAllergies(s.deps.Filter))

	s.router.Get("/history", handlers.GetHistory(s.deps.Searches))
	s.router.Delete("/history/{id}", handlers.DeleteHistoryEntry(s.deps.Searches))
	s.router.Delete("/history", handlers.ClearHistory(s.deps.Searches))

	s.router.Get("/health", handlers.HealthCheck(s.deps.Health))
	s.router.Handle("/metrics", promhttp.Handler())

	// Service index so the root does not 404 for people poking around
	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		handlers.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"service": "remedes-api",
			"endpoints": []string{
				"/remedies", "/remedies/{pageNumber}", "/remedy/{slug}",
				"/search", "/allergens", "/allergen/{id}",
				"/allergies", "/history", "/health", "/metrics",
			},
		})
	})
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() chi.Router {
	return s.router
}

// Start runs the server until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	if s.config.Env == "dev" {
		s.startProfilingServer()
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("Starting server", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
		}
		return err
	}

	logging.Info("Server exited gracefully")
	return nil
}

// startProfilingServer exposes pprof on a localhost-only side server in
// development mode.
func (s *Server) startProfilingServer() {
	go func() {
		logging.Info("Profiling server started at http://localhost:6060/debug/pprof/")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			logging.Warn("Profiling server failed", "error", err)
		}
	}()
}
