package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Opener opens and verifies one database connection attempt.
type Opener func(ctx context.Context) (*gorm.DB, error)

// NewPostgresOpener returns an Opener that dials PostgreSQL with dsn and pings it.
func NewPostgresOpener(dsn string, cfg *gorm.Config) Opener {
	return func(ctx context.Context) (*gorm.DB, error) {
		db, err := gorm.Open(pgdriver.Open(dsn), cfg)
		if err != nil {
			// gorm returns the handle alongside a failed automatic ping.
			_ = Close(db)
			return nil, err
		}
		if err := Ping(ctx, db); err != nil {
			_ = Close(db)
			return nil, err
		}
		return db, nil
	}
}

// ConnectWithRetry calls open until it succeeds, sleeping delay between
// attempts. There is no attempt limit and the delay never grows; only ctx
// cancellation ends the loop early.
func ConnectWithRetry(ctx context.Context, open Opener, delay time.Duration, log *zap.Logger) (*gorm.DB, error) {
	attempt := 0

	db, err := retry.DoValue(ctx, retry.NewConstant(delay), func(ctx context.Context) (*gorm.DB, error) {
		attempt++
		db, err := open(ctx)
		if err != nil {
			log.Warn("waiting for database",
				zap.Int("attempt", attempt),
				zap.Duration("retry_in", delay),
				zap.Error(err),
			)
			return nil, retry.RetryableError(err)
		}
		return db, nil
	})
	if err != nil {
		return nil, fmt.Errorf("database connection aborted after %d attempts: %w", attempt, err)
	}

	log.Info("database connected", zap.Int("attempts", attempt))
	return db, nil
}

// Ping verifies the connection behind db is alive.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// PoolConfig sizes the database/sql pool behind a gorm handle.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ConfigurePool applies cfg to the pool behind db. With MaxOpenConns set
// to 1 every statement is serialized on a single connection.
func ConfigurePool(db *gorm.DB, cfg PoolConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return nil
}

// Close closes the pool behind db.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
