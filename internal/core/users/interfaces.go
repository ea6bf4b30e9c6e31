package users

import "context"

// UserService defines the interface for author profiles and first-login provisioning
type UserService interface {
	// GetProfile returns the author profile for userID. The profile is never nil:
	// on a lookup failure the fallback profile is returned alongside the error.
	GetProfile(ctx context.Context, userID string) (*Profile, error)

	// GetProfiles resolves many authors at once, keyed by user ID.
	// Unknown authors get the fallback profile.
	GetProfiles(ctx context.Context, userIDs []string) (map[string]*Profile, error)

	// EnsureUser creates the users row on first sign in.
	// Returns created=false when the row already exists.
	EnsureUser(ctx context.Context, req EnsureUserRequest) (user *User, created bool, err error)
}

// UserRepository defines the interface for user data persistence
type UserRepository interface {
	// GetByID returns ErrUserNotFound when no row matches
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByIDs returns the rows that exist; missing IDs are skipped
	GetByIDs(ctx context.Context, ids []string) ([]*User, error)

	// Create inserts a new user row
	Create(ctx context.Context, user *User) (*User, error)
}
