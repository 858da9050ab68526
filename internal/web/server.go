// Package web provides the JSON HTTP API for the voice diary.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/justestif/go-voice-diary/internal/emotion"
	"github.com/justestif/go-voice-diary/internal/logging"
	"github.com/justestif/go-voice-diary/internal/metrics"
)

const (
	// DefaultAddr is the default server address.
	DefaultAddr = ":8080"

	// DefaultMaxUploadBytes caps recording uploads when no limit is configured.
	DefaultMaxUploadBytes = 25 << 20
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64
}

// Deps are the collaborators the API serves.
type Deps struct {
	Diary      DiaryService
	Classifier *emotion.Classifier
	Metrics    *metrics.Manager
	Logger     logrus.FieldLogger
	// Checks are run by /healthz, keyed by component name.
	Checks map[string]func(context.Context) error
}

// Server is the HTTP server for the API.
type Server struct {
	router   chi.Router
	server   *http.Server
	handlers *Handlers
	log      logrus.FieldLogger
	metrics  *metrics.Manager
	shutdown time.Duration
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, deps Deps) (*Server, error) {
	if deps.Diary == nil {
		return nil, errors.New("web: diary service is required")
	}
	if deps.Classifier == nil {
		deps.Classifier = emotion.Default
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	router := chi.NewRouter()

	s := &Server{
		router:   router,
		handlers: NewHandlers(deps, cfg.MaxUploadBytes),
		log:      deps.Logger,
		metrics:  deps.Metrics,
		shutdown: cfg.ShutdownTimeout,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s, nil
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.log))
	s.router.Use(requestMetrics(s.metrics))
	s.router.Use(middleware.Recoverer)
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.Get("/healthz", h.Health)
	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.SetHeader("Cache-Control", "no-store"))

		r.Post("/classify", h.Classify)
		r.Post("/assess", h.Assess)

		r.Group(func(r chi.Router) {
			r.Use(requireUser)

			r.Post("/recordings", h.UploadRecording)
			r.Get("/recordings/quota", h.RecordingQuota)

			r.Get("/days/{date}/emotions", h.DailyEmotions)
			r.Post("/days/{date}/refresh", h.RefreshDay)
			r.Post("/days/{date}/summary", h.GenerateSummary)

			r.Post("/chat", h.Chat)
			r.Get("/calendar", h.Calendar)
			r.Get("/mood-periods", h.MoodPeriods)
		})
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.WithField("addr", s.server.Addr).Info("starting server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals
// or when ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.log.Info("server stopped")
	return nil
}
