// Package server hosts compiled workflows behind HTTP: a trigger endpoint
// per workflow and a WebSocket stream of a run's step events, adapted from
// the teacher's Server/GracefulShutdown pair in internal/web/server.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/flow-lang/flow/internal/flow/cache"
	"github.com/flow-lang/flow/internal/flow/diagnostics"
	"github.com/flow-lang/flow/internal/flow/server/auth"
	"github.com/flow-lang/flow/internal/flow/server/stream"
)

// Config configures the webhook host.
type Config struct {
	Addr           string
	WorkflowDir    string
	JWTSecret      string
	TokenTTL       time.Duration
	ExecTimeout    time.Duration
	ShutdownWindow time.Duration
}

// Server hosts every compiled workflow found under Config.WorkflowDir.
type Server struct {
	httpServer  *http.Server
	hub         *stream.Hub
	tokens      *auth.TokenService
	workflows   map[string]*workflow
	logger      *zap.Logger
	execTimeout time.Duration
	shutdownFor time.Duration
}

// New loads and wires every workflow under cfg.WorkflowDir, returning the
// compile failures (if any) alongside the Server so the caller can decide
// whether a broken workflow should abort startup or just be served
// unavailable.
func New(cfg Config, c cache.ProgramCache, logger *zap.Logger) (*Server, map[string]diagnostics.List, error) {
	workflows, failed, err := loadWorkflows(cfg.WorkflowDir, c, os.Getenv)
	if err != nil {
		return nil, nil, err
	}

	hub := stream.NewHub(context.Background(), logger)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)

	s := &Server{
		hub:         hub,
		tokens:      tokens,
		workflows:   workflows,
		logger:      logger,
		execTimeout: cfg.ExecTimeout,
		shutdownFor: cfg.ShutdownWindow,
	}

	router := chi.NewRouter()
	router.Use(recovery(logger), requestLogging(logger))
	router.Get("/healthz", s.handleHealth)

	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(tokens, func(r *http.Request) string { return chi.URLParam(r, "name") }))
		r.Post("/workflows/{name}/trigger", s.handleTrigger)
		r.Get("/workflows/{name}/stream/{runID}", s.handleStream)
	})

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.ExecTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, failed, nil
}

// ListenAndServeWithGracefulShutdown starts the HTTP server and blocks
// until SIGINT/SIGTERM, then drains in-flight requests within the
// configured shutdown window.
func (s *Server) ListenAndServeWithGracefulShutdown() error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting flow server", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server failed: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		s.logger.Info("shutdown signal received")
		return s.Shutdown()
	case err := <-errCh:
		return err
	}
}

// Shutdown stops accepting new work and drains existing connections.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownFor)
	defer cancel()

	s.hub.Shutdown()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("flow server stopped")
	return nil
}
