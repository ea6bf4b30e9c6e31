package users

import "errors"

// Sentinel errors for common user operations
var (
	// ErrUserNotFound is returned when a user lookup finds no matching record
	ErrUserNotFound = errors.New("user not found")

	// ErrUserIDRequired is returned when an operation is given a blank user ID
	ErrUserIDRequired = errors.New("user ID is required")
)
