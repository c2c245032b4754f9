package server

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/yoswag75/Musicify/internal/pipeline"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Config holds server configuration
type Config struct {
	Port           int
	OutputDir      string
	MaxUploadSize  int64
	JobTTL         time.Duration
	AllowedOrigins []string
}

// Server is the HTTP server
type Server struct {
	config    Config
	router    *chi.Mux
	templates *template.Template
	logger    *zap.Logger
	jobs      *JobManager
}

// New creates a new server that runs uploads through orch.
func New(cfg Config, orch *pipeline.Orchestrator, logger *zap.Logger) (*Server, error) {
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = 100 * 1024 * 1024
	}
	if cfg.JobTTL == 0 {
		cfg.JobTTL = time.Hour
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		config:    cfg,
		router:    chi.NewRouter(),
		templates: tmpl,
		logger:    logger,
		jobs:      NewJobManager(orch, logger, cfg.OutputDir, cfg.JobTTL),
	}

	s.setupRoutes()
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	r := s.router

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}).Handler)

	// Pages
	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Get("/instruments", s.handleInstruments)

	// API
	r.Route("/jobs", func(r chi.Router) {
		r.Post("/", s.handleCreateJob)
		r.Get("/{id}", s.handleJobStatus)
		r.Get("/{id}/midi", s.handleDownloadMIDI)
		r.Get("/{id}/score", s.handleDownloadScore)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()

		s.logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("shutdown error", zap.Error(err))
		}
		if err := s.jobs.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("jobs did not stop in time", zap.Error(err))
		}
	}()

	s.logger.Info("server starting", zap.Int("port", s.config.Port), zap.String("output", s.config.OutputDir))
	fmt.Printf("\n  Musicify web interface running at: http://localhost:%d\n\n", s.config.Port)

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}

	<-done
	return nil
}
