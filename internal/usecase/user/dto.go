package user

// CreateUserRequest represents the request payload for creating a new user.
type CreateUserRequest struct {
	Name  string `validate:"required,max=100"`
	Email string `validate:"required,max=100,email"`
}

// CreateUserResponse carries the stored user including the generated ID.
type CreateUserResponse struct {
	User
}

// UpdateUserRequest replaces name and email of an existing user.
type UpdateUserRequest struct {
	ID    int64
	Name  string `validate:"required,max=100"`
	Email string `validate:"required,max=100,email"`
}

// UpdateUserResponse echoes the values that were written.
type UpdateUserResponse struct {
	User
}

// DeleteUserRequest represents the request payload for deleting a user.
type DeleteUserRequest struct {
	ID int64
}

// DeleteUserResponse represents the response payload after deleting a user.
type DeleteUserResponse struct {
	ID int64
}

// GetUserRequest represents the request payload for retrieving a user.
type GetUserRequest struct {
	ID int64
}

// GetUserResponse represents the response payload for user details.
type GetUserResponse struct {
	User
}

// ListUsersRequest lists every user; it has no filters.
type ListUsersRequest struct{}

// ListUsersResponse represents the response payload for user listing.
type ListUsersResponse struct {
	Users []User
}

// User represents a user DTO (Data Transfer Object) for API responses.
type User struct {
	ID    int64
	Name  string
	Email string
}
