package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-crud-service/cmd/api/infrastructure"
	"user-crud-service/internal/adapter/db/postgres"
	ginhandler "user-crud-service/internal/adapter/gin/handler"
	"user-crud-service/internal/adapter/gin/middleware"
	ginrouter "user-crud-service/internal/adapter/gin/router"
	"user-crud-service/internal/config"
	"user-crud-service/internal/usecase/user"
	"user-crud-service/pkg/database"
	redisclient "user-crud-service/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	RedisClient *redisclient.Client
	UserUC      user.Usecase
	RateLimiter *middleware.RateLimiter
	Handler     http.Handler
}

// NewContainer connects to the database, ensures the schema and builds the
// HTTP handler tree. It blocks until the database is reachable or ctx ends.
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	db, err := infrastructure.NewDatabase(ctx, cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return build(ctx, cfg, l, db)
}

// build wires everything that sits on top of an open database. It owns db
// from the moment it is called and closes it on failure.
func build(ctx context.Context, cfg *config.Config, l *zap.Logger, db *gorm.DB) (*Container, error) {
	c := &Container{Config: cfg, Logger: l, DB: db}

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	l.Info("schema ready", zap.String("table", postgres.UserSchema{}.TableName()))

	rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}
	c.RedisClient = rdb

	if rdb != nil {
		c.RateLimiter = middleware.NewRateLimiter(rdb.Client, middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstCapacity:     cfg.RateLimit.BurstCapacity,
		}, l)
	}

	c.UserUC = user.New(postgres.NewUserRepoPG(db, l), l)

	c.Handler = ginrouter.SetupRouter(ginrouter.Handlers{
		User:   ginhandler.NewUserHandler(c.UserUC, l),
		Health: ginhandler.NewHealthHandler(postgres.NewStatusPG(db), cfg.Logger.ServiceName, l),
	}, c.RateLimiter, l)

	return c, nil
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
		if err := database.Close(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	return errors.Join(errs...)
}
