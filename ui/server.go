package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"adpulse/app"
	"adpulse/internal"
	"adpulse/internal/config"
)

// Server exposes the evaluation pipeline over HTTP
type Server struct {
	router  *chi.Mux
	service *app.EvaluationService
	cfg     config.EvalConfig
	logger  *internal.Logger
}

// NewServer creates the HTTP server around an evaluation service
func NewServer(service *app.EvaluationService, cfg config.EvalConfig, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router:  chi.NewRouter(),
		service: service,
		cfg:     cfg,
		logger:  logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/config", s.handleConfig)
	s.router.Post("/api/evaluate", s.handleEvaluate)
	s.router.Post("/api/evaluate/upload", s.handleEvaluateUpload)
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts serving on the given address
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("listening on %s", addr)
	return http.ListenAndServe(addr, s.router)
}
