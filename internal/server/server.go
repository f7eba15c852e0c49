// Package server exposes the recommendation service over HTTP. It provides
// the lenient /fortune endpoint, the strict /recommend endpoint, and a
// health check, with CORS open for frontend development.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mirukang/fortunecast/internal/config"
	"github.com/mirukang/fortunecast/internal/database"
	"github.com/mirukang/fortunecast/internal/logger"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the gin engine and the underlying http.Server.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	log        *slog.Logger
}

// New assembles the HTTP server: middleware, CORS, and routes.
func New(cfg config.ServerConfig, svc Responder, store database.Store, log *slog.Logger, debug bool) *Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(logger.Middleware(log))
	engine.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Requested-With"}
	engine.Use(cors.New(corsConfig))

	h := &handler{
		svc:   svc,
		store: store,
		log:   log.With("component", "http_handler"),
	}
	h.registerRoutes(engine)

	return &Server{
		engine: engine,
		log:    log.With("component", "http_server"),
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      engine,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute, // LLM round trips can be slow
		},
	}
}

// Run starts the listener and blocks until the context is cancelled or the
// server fails. On cancellation it shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}

	s.log.Info("HTTP server stopped gracefully.")
	return nil
}
