package di

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"account-ledger-service/cmd/api/infrastructure"
	"account-ledger-service/internal/adapter/cache"
	"account-ledger-service/internal/adapter/db/postgres"
	ginhandler "account-ledger-service/internal/adapter/gin/handler"
	"account-ledger-service/internal/adapter/gin/middleware"
	"account-ledger-service/internal/adapter/repository/cached"
	"account-ledger-service/internal/config"
	"account-ledger-service/internal/usecase/transfer"
	"account-ledger-service/internal/usecase/user"
	redisclient "account-ledger-service/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config          *config.Config
	Logger          *zap.Logger
	DB              *gorm.DB
	RedisClient     *redisclient.Client
	UserUC          *user.Usecase
	TransferUC      *transfer.Usecase
	RateLimiter     *middleware.RateLimiter
	UserHandler     *ginhandler.UserHandler
	TransferHandler *ginhandler.TransferHandler
}

// NewContainer creates and initializes all application dependencies
func NewContainer(cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	db, err := infrastructure.NewDatabase(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	rdb, err := infrastructure.NewRedisClient(cfg, l)
	if err != nil {
		_ = infrastructure.CloseDatabase(db)
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	c := &Container{
		Config:      cfg,
		Logger:      l,
		DB:          db,
		RedisClient: rdb,
	}
	c.wire()
	return c, nil
}

// wire builds repositories, usecases and handlers on top of the connections.
func (c *Container) wire() {
	cfg, l := c.Config, c.Logger

	var userRepo user.Repository = postgres.NewUserRepoPG(c.DB, l)
	// A nil *RedisUserCache must not reach the usecase as a non-nil interface
	var invalidator transfer.CacheInvalidator
	if c.RedisClient != nil {
		userCache := cache.NewRedisUserCache(
			c.RedisClient.Client,
			time.Duration(cfg.Redis.CacheTTL)*time.Second,
			l,
		)
		userRepo = cached.NewUserRepository(userRepo, userCache, l)
		invalidator = userCache

		if cfg.RateLimit.Enabled {
			c.RateLimiter = middleware.NewRateLimiter(
				c.RedisClient.Client,
				middleware.RateLimiterConfig{
					RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
					BurstCapacity:     cfg.RateLimit.BurstCapacity,
					Enabled:           cfg.RateLimit.Enabled,
				},
				l,
			)
		}
	}

	c.UserUC = user.New(userRepo, l)
	c.TransferUC = transfer.New(postgres.NewTransferRepoPG(c.DB, l), invalidator, l)

	status := ginhandler.StatusMapperFor(cfg.App.ErrorStatusMode)
	c.UserHandler = ginhandler.NewUserHandler(c.UserUC, status, l)
	c.TransferHandler = ginhandler.NewTransferHandler(c.TransferUC, status, l)
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	return errors.Join(errs...)
}
