package likes

import "errors"

var (
	// ErrUnauthenticated is returned when a like is attempted without a signed-in user
	ErrUnauthenticated = errors.New("authentication required to like posts")

	// ErrMissingPost is returned when a toggle names no post
	ErrMissingPost = errors.New("post ID is required")
)
