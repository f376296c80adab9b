package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/zap"

	"account-ledger-service/cmd/api/di"
	ginrouter "account-ledger-service/internal/adapter/gin/router"
	"account-ledger-service/internal/config"
)

// Server owns the HTTP listener of the service
type Server struct {
	Config *config.Config
	Logger *zap.Logger
	HTTP   *http.Server
}

// New creates a new server instance serving the handlers held by c
func New(cfg *config.Config, l *zap.Logger, c *di.Container) *Server {
	opts := ginrouter.Options{
		ServiceName: cfg.Logger.ServiceName,
		StaticDir:   cfg.App.StaticDir,
	}

	return &Server{
		Config: cfg,
		Logger: l,
		HTTP: SetupGinServer(c.UserHandler, c.TransferHandler, c.RateLimiter,
			opts, ":"+cfg.App.HTTPPort, l),
	}
}

// Start listens on the configured port and serves until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	lis, err := lc.Listen(ctx, "tcp", s.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.Logger.Info("listening", zap.String("address", lis.Addr().String()))

	if err := s.HTTP.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.HTTP.Shutdown(ctx)
}
