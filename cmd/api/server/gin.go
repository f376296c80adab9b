package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	ginhandler "account-ledger-service/internal/adapter/gin/handler"
	"account-ledger-service/internal/adapter/gin/middleware"
	ginrouter "account-ledger-service/internal/adapter/gin/router"
)

// SetupGinServer creates and configures the Gin REST API server
func SetupGinServer(
	userHandler *ginhandler.UserHandler,
	transferHandler *ginhandler.TransferHandler,
	rateLimiter *middleware.RateLimiter,
	opts ginrouter.Options,
	addr string,
	l *zap.Logger,
) *http.Server {
	router := ginrouter.SetupRouter(userHandler, transferHandler, rateLimiter, opts, l)

	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
