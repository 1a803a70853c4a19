package infrastructure

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-crud-service/internal/config"
	"user-crud-service/pkg/database"
	"user-crud-service/pkg/logger"
)

// NewDatabase connects to PostgreSQL, retrying until the server answers or ctx
// is canceled, and configures the connection pool.
func NewDatabase(ctx context.Context, cfg *config.Config, l *zap.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:         logger.NewGormLogger(l, cfg.Logger.SlowQuerySeconds, cfg.Logger.Level),
		TranslateError: true,
	}

	l.Info("connecting to database", zap.String("target", cfg.DB.Target()))

	db, err := database.ConnectWithRetry(ctx, database.NewPostgresOpener(cfg.DB.DSN(), gormCfg), cfg.DB.ConnectRetryDelay, l)
	if err != nil {
		return nil, err
	}

	pool := database.PoolConfig{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.DB.ConnMaxLifetime) * time.Second,
	}
	if err := database.ConfigurePool(db, pool); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to configure connection pool: %w", err)
	}

	l.Info("database pool configured",
		zap.Int("max_open_conns", pool.MaxOpenConns),
		zap.Int("max_idle_conns", pool.MaxIdleConns),
		zap.Duration("conn_max_lifetime", pool.ConnMaxLifetime),
	)

	return db, nil
}
