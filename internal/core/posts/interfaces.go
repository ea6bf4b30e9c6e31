package posts

import "context"

// Service defines the business logic interface for posts
type Service interface {
	// ListPosts returns every post, newest first
	ListPosts(ctx context.Context) ([]*Post, error)

	// ListPostsByIDs returns the posts with the given IDs, newest first.
	// An empty ID set returns an empty slice without touching the backend.
	ListPostsByIDs(ctx context.Context, ids []string) ([]*Post, error)

	// GetPost returns one post. Unknown or malformed IDs return ErrNotFound.
	GetPost(ctx context.Context, id string) (*Post, error)

	// CreatePost validates and normalizes req, then inserts a post authored by authorID
	CreatePost(ctx context.Context, authorID string, req CreatePostRequest) (*Post, error)

	// DeletePost removes a post. Only the author may delete, and only with confirmed=true.
	// Refusals never issue a delete to the backend.
	DeletePost(ctx context.Context, viewerID, postID string, confirmed bool) error
}

// Repository defines the data access interface for posts
type Repository interface {
	// List returns all posts ordered by created_at descending
	List(ctx context.Context) ([]*Post, error)

	// ListByIDs returns matching posts ordered by created_at descending
	ListByIDs(ctx context.Context, ids []string) ([]*Post, error)

	// GetByID returns ErrNotFound when no row matches
	GetByID(ctx context.Context, id string) (*Post, error)

	// Create inserts the post and returns the stored row (ID and timestamps filled)
	Create(ctx context.Context, post *Post) (*Post, error)

	// Delete removes the post by ID
	Delete(ctx context.Context, id string) error
}

// LinkPreviewer resolves a preview image for an external link.
// Implementations are best effort; ok=false means no image was found.
type LinkPreviewer interface {
	PreviewImage(ctx context.Context, link string) (imageURL string, ok bool)
}
