package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"cprcli/internal/config"
	"cprcli/internal/infrastructure"
)

// Server wraps the status HTTP server with lifecycle management.
type Server struct {
	cfg    config.ServerConfig
	srv    *http.Server
	logger *slog.Logger
}

// NewServer builds the status server from configuration.
func NewServer(cfg config.ServerConfig, handler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg: cfg,
		srv: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		logger: infrastructure.WithComponent(logger, "server"),
	}
}

// Start serves until ctx is canceled, then shuts down gracefully within the
// configured shutdown timeout. It returns nil after a clean shutdown and the
// listen error otherwise.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.InfoContext(ctx, "status server listening", slog.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("status server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("status server shutting down")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("status server shutdown: %w", err)
	}
	return nil
}
