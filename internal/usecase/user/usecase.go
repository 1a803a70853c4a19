package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "user-crud-service/internal/domain/user"
	apperrors "user-crud-service/pkg/errors"
	"user-crud-service/pkg/logger"
)

// Repository defines the interface for user data access operations.
// Implementations report missing rows as *errors.NotFoundError and email
// conflicts as *errors.AlreadyExistsError.
type Repository interface {
	Create(ctx context.Context, u *domain.User) (int64, error) // Create a new user, returning its id
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.User, error)
}

// UserUsecase implements Usecase. It validates input and translates between
// transport DTOs and the repository.
type UserUsecase struct {
	repo     Repository
	log      *zap.Logger
	validate *validator.Validate
}

var _ Usecase = (*UserUsecase)(nil)

// New creates a new UserUsecase with the provided repository and logger.
func New(r Repository, log *zap.Logger) *UserUsecase {
	return &UserUsecase{repo: r, log: log, validate: validator.New(validator.WithRequiredStructEnabled())}
}

// formatValidationError converts validator.ValidationErrors into a *errors.ValidationError.
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperrors.NewValidationError("", err.Error())
	}

	var messages []string
	for _, e := range validationErrors {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", field))
		case "email":
			messages = append(messages, fmt.Sprintf("%s must be a valid email", field))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s characters", field, e.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", field))
		}
	}
	return apperrors.NewValidationError("", strings.Join(messages, ", "))
}

// internal wraps unexpected repository errors so that only a generic message
// reaches clients; typed application errors pass through.
func internal(op string, err error) error {
	var se apperrors.HTTPStatuser
	if errors.As(err, &se) {
		return err
	}
	return apperrors.NewInternalError(apperrors.ErrInternal.Message, fmt.Errorf("%s: %w", op, err))
}

// CreateUser validates the request and stores a new user.
func (uc *UserUsecase) CreateUser(ctx context.Context, in CreateUserRequest) (*CreateUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := uc.validate.Struct(in); err != nil {
		log.Warn("create user validation failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	id, err := uc.repo.Create(ctx, &domain.User{
		Name:  in.Name,
		Email: in.Email,
	})
	if err != nil {
		log.Warn("failed to create user", zap.String("email", in.Email), zap.Error(err))
		return nil, internal("failed to create user", err)
	}

	log.Info("user created", zap.Int64("id", id))
	return &CreateUserResponse{User: User{ID: id, Name: in.Name, Email: in.Email}}, nil
}

// UpdateUser validates the request and overwrites name and email of an existing user.
func (uc *UserUsecase) UpdateUser(ctx context.Context, in UpdateUserRequest) (*UpdateUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := uc.validate.Struct(in); err != nil {
		log.Warn("update user validation failed", zap.Int64("id", in.ID), zap.Error(err))
		return nil, formatValidationError(err)
	}

	err := uc.repo.Update(ctx, &domain.User{
		ID:    in.ID,
		Name:  in.Name,
		Email: in.Email,
	})
	if err != nil {
		log.Warn("failed to update user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, internal("failed to update user", err)
	}

	log.Info("user updated", zap.Int64("id", in.ID))
	return &UpdateUserResponse{User: User{ID: in.ID, Name: in.Name, Email: in.Email}}, nil
}

// DeleteUser removes a user permanently.
func (uc *UserUsecase) DeleteUser(ctx context.Context, in DeleteUserRequest) (*DeleteUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	if err := uc.repo.Delete(ctx, in.ID); err != nil {
		log.Warn("failed to delete user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, internal("failed to delete user", err)
	}

	log.Info("user deleted", zap.Int64("id", in.ID))
	return &DeleteUserResponse{ID: in.ID}, nil
}

// GetUser retrieves a user by ID.
func (uc *UserUsecase) GetUser(ctx context.Context, in GetUserRequest) (*GetUserResponse, error) {
	u, err := uc.repo.GetByID(ctx, in.ID)
	if err != nil {
		logger.WithContext(ctx, uc.log).Debug("failed to get user", zap.Int64("id", in.ID), zap.Error(err))
		return nil, internal("failed to get user", err)
	}

	return &GetUserResponse{User: toDTO(*u)}, nil
}

// ListUsers returns every user ordered by id. The result is never nil.
func (uc *UserUsecase) ListUsers(ctx context.Context, _ ListUsersRequest) (*ListUsersResponse, error) {
	domainUsers, err := uc.repo.List(ctx)
	if err != nil {
		logger.WithContext(ctx, uc.log).Error("failed to list users", zap.Error(err))
		return nil, internal("failed to list users", err)
	}

	users := make([]User, len(domainUsers))
	for i, du := range domainUsers {
		users[i] = toDTO(du)
	}

	return &ListUsersResponse{Users: users}, nil
}

func toDTO(u domain.User) User {
	return User{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}
