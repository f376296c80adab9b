package router

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"account-ledger-service/internal/adapter/gin/handler"
	"account-ledger-service/internal/adapter/gin/middleware"
)

// Options holds router settings that do not belong to a handler.
type Options struct {
	// ServiceName is reported by GET /health.
	ServiceName string
	// StaticDir is served for unmatched routes when it exists.
	StaticDir string
}

// SetupRouter configures and returns a Gin router with all routes and middleware.
// rateLimiter may be nil.
func SetupRouter(
	userHandler *handler.UserHandler,
	transferHandler *handler.TransferHandler,
	rateLimiter *middleware.RateLimiter,
	opts Options,
	log *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(rateLimiter.Handler())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": opts.ServiceName,
		})
	})

	router.POST("/usuario", userHandler.CreateUser)
	router.GET("/usuarios", userHandler.ListUsers)
	router.GET("/usuario/:id", userHandler.GetUser)
	router.PUT("/usuario", userHandler.UpdateUser)
	router.DELETE("/usuario/:id", userHandler.DeleteUser)

	router.POST("/transferencia", transferHandler.Transfer)
	router.GET("/transferencias", transferHandler.ListTransfers)

	if opts.StaticDir != "" {
		if info, err := os.Stat(opts.StaticDir); err == nil && info.IsDir() {
			files := http.FileServer(http.Dir(opts.StaticDir))
			router.NoRoute(func(c *gin.Context) {
				files.ServeHTTP(c.Writer, c.Request)
			})
		} else {
			log.Debug("static directory not found, skipping", zap.String("dir", opts.StaticDir))
		}
	}

	return router
}
