package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"user-crud-service/internal/domain/user"
)

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID    int64  `gorm:"primaryKey;autoIncrement"`
	Name  string `gorm:"size:100;not null"`
	Email string `gorm:"size:100;not null;unique"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

func (m UserSchema) toDomain() *user.User {
	return &user.User{
		ID:    m.ID,
		Name:  m.Name,
		Email: m.Email,
	}
}

// EnsureSchema creates the users table if it does not exist yet. An existing
// table is left untouched, so calling it repeatedly is safe.
func EnsureSchema(ctx context.Context, db *gorm.DB) error {
	m := db.WithContext(ctx).Migrator()
	if m.HasTable(&UserSchema{}) {
		return nil
	}

	if err := m.CreateTable(&UserSchema{}); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}
