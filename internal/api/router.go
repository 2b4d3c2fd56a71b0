// Package api exposes the feed, stories and admin operations over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/ssupercloud/nextdawn/internal/scheduler"
)

// Syncer triggers market synchronization.
type Syncer interface {
	SyncNow(ctx context.Context) int
}

// JobRunner runs and reports scheduled jobs.
type JobRunner interface {
	RunJobNow(name string) error
	JobStatus() []scheduler.JobStatus
}

// Server represents the API server.
type Server struct {
	router    *chi.Mux
	handlers  *Handlers
	syncer    Syncer
	scheduler JobRunner
	addr      string
	server    *http.Server
}

// NewServer creates a new API server. syncer and sched may be nil.
func NewServer(handlers *Handlers, syncer Syncer, sched JobRunner, addr string) *Server {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	srv := &Server{
		router:    r,
		handlers:  handlers,
		syncer:    syncer,
		scheduler: sched,
		addr:      addr,
	}

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Health
		r.Get("/health", handlers.HealthCheck)
		r.Get("/stats", handlers.GetStats)

		// Home feed
		r.Get("/feed", handlers.GetFeed)
		r.Get("/categories", handlers.GetCategories)

		// Markets
		r.Route("/markets/{id}", func(r chi.Router) {
			r.Get("/", handlers.GetMarket)
			r.Get("/headline", handlers.GetHeadline)
			r.Get("/story", handlers.GetStory)
		})

		// Admin routes (no auth for development)
		r.Route("/admin", func(r chi.Router) {
			r.Post("/sync", srv.AdminSyncNow)
			r.Get("/jobs", srv.AdminGetJobs)
			r.Post("/jobs/{name}/run", srv.AdminRunJob)
		})
	})

	return srv
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the API server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Str("addr", s.addr).Msg("Starting API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// ============================================================================
// ADMIN HANDLERS
// ============================================================================

// AdminSyncNow forces an immediate market sync.
func (s *Server) AdminSyncNow(w http.ResponseWriter, r *http.Request) {
	if s.syncer == nil {
		respondError(w, http.StatusServiceUnavailable, "Syncer not available")
		return
	}

	go s.syncer.SyncNow(context.WithoutCancel(r.Context()))

	respondJSON(w, http.StatusAccepted, map[string]string{
		"status":  "ok",
		"message": "Sync triggered",
	})
}

// AdminGetJobs returns the status of all scheduled jobs.
func (s *Server) AdminGetJobs(w http.ResponseWriter, r *http.Request) {
	if s.scheduler == nil {
		respondError(w, http.StatusServiceUnavailable, "Scheduler not available")
		return
	}

	jobs := s.scheduler.JobStatus()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// AdminRunJob runs a specific job by name.
func (s *Server) AdminRunJob(w http.ResponseWriter, r *http.Request) {
	if s.scheduler == nil {
		respondError(w, http.StatusServiceUnavailable, "Scheduler not available")
		return
	}

	name := chi.URLParam(r, "name")
	if err := s.scheduler.RunJobNow(name); err != nil {
		if errors.Is(err, scheduler.ErrUnknownJob) {
			respondError(w, http.StatusNotFound, "Job not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{
		"status":  "ok",
		"message": "Job triggered: " + name,
	})
}
