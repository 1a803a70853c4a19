package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"user-crud-service/pkg/database"
)

// StatusPG reports liveness and version information about the database.
type StatusPG struct {
	db *gorm.DB
}

// NewStatusPG creates a new StatusPG.
func NewStatusPG(db *gorm.DB) *StatusPG {
	return &StatusPG{db: db}
}

// Ping checks that the database answers.
func (s *StatusPG) Ping(ctx context.Context) error {
	return database.Ping(ctx, s.db)
}

// Version returns the version string reported by the database engine.
func (s *StatusPG) Version(ctx context.Context) (string, error) {
	query := "SELECT version()"
	if s.db.Dialector.Name() == "sqlite" {
		query = "SELECT sqlite_version()"
	}

	var version string
	if err := s.db.WithContext(ctx).Raw(query).Scan(&version).Error; err != nil {
		return "", fmt.Errorf("failed to query database version: %w", err)
	}
	return version, nil
}
