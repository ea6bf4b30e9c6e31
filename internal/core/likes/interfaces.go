package likes

import "context"

// Service defines the business logic interface for likes
type Service interface {
	// Toggle flips the viewer's like on current.PostID and returns the new state.
	// Unauthenticated viewers get current back with ErrUnauthenticated and no
	// write is issued. On a backend failure current is returned unchanged along
	// with the (already logged) error.
	Toggle(ctx context.Context, viewerID string, current State) (State, error)

	// IsLiked reports whether the viewer has liked the post. Anonymous viewers never have.
	IsLiked(ctx context.Context, viewerID, postID string) (bool, error)

	// Count returns the total number of likes on the post
	Count(ctx context.Context, postID string) (int, error)

	// LikedPostIDs returns the IDs of every post the viewer has liked
	LikedPostIDs(ctx context.Context, viewerID string) ([]string, error)

	// StatsForPosts resolves counts and the viewer's like state for a page of
	// posts in one pass. Missing posts get a zero state.
	StatsForPosts(ctx context.Context, viewerID string, postIDs []string) (map[string]State, error)
}

// Repository defines the data access interface for likes
type Repository interface {
	// Exists reports whether userID has a like row on postID
	Exists(ctx context.Context, postID, userID string) (bool, error)

	// Count returns the number of like rows on postID
	Count(ctx context.Context, postID string) (int, error)

	// Create inserts a like row
	Create(ctx context.Context, postID, userID string) error

	// Delete removes the like row for (postID, userID)
	Delete(ctx context.Context, postID, userID string) error

	// ListPostIDsByUser returns the post IDs userID has liked
	ListPostIDsByUser(ctx context.Context, userID string) ([]string, error)

	// CountsForPosts returns like counts keyed by post ID (posts with no likes may be absent)
	CountsForPosts(ctx context.Context, postIDs []string) (map[string]int, error)
}
