package user

// User represents a user entity in the system.
type User struct {
	ID    int64  // ID is assigned by the storage engine and never changes
	Name  string // Name is the display name of the user
	Email string // Email is unique across all users
}
