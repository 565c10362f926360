package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/studyflow/planner-engine/internal/calendar"
	"github.com/studyflow/planner-engine/internal/config"
	"github.com/studyflow/planner-engine/internal/planner"
	"github.com/studyflow/planner-engine/internal/prompts"
	"github.com/studyflow/planner-engine/internal/storage"
)

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	planner        *planner.Service
	projector      calendar.Projector
	promptLoader   *prompts.Loader
	repo           storage.Repository
	authMiddleware *AuthMiddleware
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	svc *planner.Service,
	projector calendar.Projector,
	loader *prompts.Loader,
	repo storage.Repository,
) *Server {
	s := &Server{
		config:         cfg,
		planner:        svc,
		projector:      projector,
		promptLoader:   loader,
		repo:           repo,
		authMiddleware: NewAuthMiddleware(repo),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (outside versioned API - public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	// API v1 routes (protected by authentication)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware.Authenticate)

		// Per-user planner data
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Route("/courses", func(r chi.Router) {
				r.With(s.authMiddleware.RequirePermission("planner:read")).Get("/", s.handleListCourses)
				r.With(s.authMiddleware.RequirePermission("planner:write")).Post("/", s.handleCreateCourse)
				r.With(s.authMiddleware.RequirePermission("planner:write")).Put("/{id}", s.handleUpdateCourse)
				r.With(s.authMiddleware.RequirePermission("planner:write")).Delete("/{id}", s.handleDeleteCourse)
			})

			r.Route("/schedule", func(r chi.Router) {
				r.With(s.authMiddleware.RequirePermission("planner:read")).Get("/", s.handleListCommitments)
				r.With(s.authMiddleware.RequirePermission("planner:write")).Post("/", s.handleCreateCommitment)
				r.With(s.authMiddleware.RequirePermission("planner:write")).Delete("/{id}", s.handleDeleteCommitment)
			})

			r.With(s.authMiddleware.RequirePermission("planner:read")).Get("/preferences", s.handleGetPreferences)
			r.With(s.authMiddleware.RequirePermission("planner:write")).Put("/preferences", s.handlePutPreferences)
			r.With(s.authMiddleware.RequirePermission("planner:read")).Get("/settings", s.handleGetSettings)
			r.With(s.authMiddleware.RequirePermission("planner:write")).Put("/settings", s.handlePutSettings)

			r.With(s.authMiddleware.RequirePermission("planner:read")).Get("/plans/latest", s.handleLatestPlan)
		})

		// Study plans
		r.Route("/plans", func(r chi.Router) {
			r.With(s.authMiddleware.RequirePermission("planner:read")).Get("/", s.handleListPlans)
			r.With(s.authMiddleware.RequirePermission("planner:write")).Post("/generate", s.handleGeneratePlan)

			r.Route("/{id}", func(r chi.Router) {
				r.With(s.authMiddleware.RequirePermission("planner:read")).Get("/", s.handleGetPlan)
				r.With(s.authMiddleware.RequirePermission("planner:write")).Delete("/", s.handleDeletePlan)
				r.With(s.authMiddleware.RequirePermission("calendar:write")).Post("/calendar", s.handleProjectPlan)
				r.With(s.authMiddleware.RequirePermission("calendar:write")).Get("/calendar/ws", s.handleProjectionWS)
			})
		})

		// Prompt templates
		r.Route("/templates", func(r chi.Router) {
			r.With(s.authMiddleware.RequirePermission("planner:read")).Get("/", s.handleListTemplates)
			r.With(s.authMiddleware.RequirePermission("planner:read")).Get("/{name}", s.handleGetTemplate)
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
