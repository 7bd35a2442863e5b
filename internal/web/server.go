// Package web serves the bill form, the bill list and invoice previews to a
// browser.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"ebilling/internal/logger"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP server for the billing UI.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	log        zerolog.Logger
}

// NewServer creates a server listening on addr (":8080" style).
func NewServer(addr string, h *Handler) *Server {
	log := logger.WithComponent("web")

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))
	h.Register(router)

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      60 * time.Second,
		},
		log: log,
	}
}

// Router returns the gin engine.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.httpServer.Addr).Msg("Server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info().Msg("Shutting down server...")
	if err := s.Shutdown(); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.log.Info().Msg("Server exited gracefully")
	return nil
}

// Shutdown stops accepting requests and waits for those in flight.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
