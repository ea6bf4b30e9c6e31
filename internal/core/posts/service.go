package posts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/rivo/uniseg"
)

type postService struct {
	repo      Repository
	previewer LinkPreviewer
	logger    *slog.Logger
}

// ServiceOption configures the post service.
type ServiceOption func(*postService)

// WithLinkPreviewer enables deriving a post image from its external link.
func WithLinkPreviewer(p LinkPreviewer) ServiceOption {
	return func(s *postService) {
		s.previewer = p
	}
}

// NewService creates a new post service
func NewService(repo Repository, logger *slog.Logger, opts ...ServiceOption) Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &postService{
		repo:   repo,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *postService) ListPosts(ctx context.Context) ([]*Post, error) {
	posts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

func (s *postService) ListPostsByIDs(ctx context.Context, ids []string) ([]*Post, error) {
	if len(ids) == 0 {
		return []*Post{}, nil
	}
	posts, err := s.repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts by id: %w", err)
	}
	return posts, nil
}

func (s *postService) GetPost(ctx context.Context, id string) (*Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post %s: %w", id, err)
	}
	return post, nil
}

func (s *postService) CreatePost(ctx context.Context, authorID string, req CreatePostRequest) (*Post, error) {
	if authorID == "" {
		return nil, ErrUnauthenticated
	}

	post, err := NormalizeRequest(req)
	if err != nil {
		return nil, err
	}
	post.UserID = authorID

	if post.ImageURL == nil && post.ExternalURL != nil && s.previewer != nil {
		if img, ok := s.previewer.PreviewImage(ctx, *post.ExternalURL); ok {
			post.ImageURL = &img
		}
	}

	created, err := s.repo.Create(ctx, post)
	if err != nil {
		s.logger.Error("failed to insert post", "user_id", authorID, "error", err, "code", BackendCode(err))
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.logger.Info("post created", "post_id", created.ID, "user_id", authorID)
	return created, nil
}

func (s *postService) DeletePost(ctx context.Context, viewerID, postID string, confirmed bool) error {
	if viewerID == "" {
		return ErrUnauthenticated
	}
	if !confirmed {
		return ErrNotConfirmed
	}

	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if !post.IsAuthor(viewerID) {
		s.logger.Warn("refused delete by non-author", "post_id", postID, "user_id", viewerID)
		return ErrNotAuthor
	}

	if err := s.repo.Delete(ctx, postID); err != nil {
		s.logger.Error("failed to delete post", "post_id", postID, "error", err)
		return fmt.Errorf("failed to delete post: %w", err)
	}

	s.logger.Info("post deleted", "post_id", postID, "user_id", viewerID)
	return nil
}

// NormalizeRequest validates req and returns the post it describes.
// Title is trimmed and required; blank optional fields become nil.
func NormalizeRequest(req CreatePostRequest) (*Post, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, NewValidationError("title", MsgTitleRequired)
	}
	if uniseg.GraphemeClusterCount(title) > MaxTitleGraphemes {
		return nil, NewValidationError("title", fmt.Sprintf("Title must be %d characters or fewer", MaxTitleGraphemes))
	}

	content := strings.TrimSpace(req.Content)
	if len(content) > MaxContentLength {
		return nil, NewValidationError("content", "Content is too long")
	}

	imageURL, err := normalizeURL(req.ImageURL)
	if err != nil {
		return nil, NewValidationError("image_url", "Image URL must be a valid http(s) URL")
	}
	link, err := normalizeURL(req.ExternalURL)
	if err != nil {
		return nil, NewValidationError("external_url", "Link must be a valid http(s) URL")
	}

	return &Post{
		Title:       title,
		Content:     optional(content),
		ImageURL:    optional(imageURL),
		ExternalURL: optional(link),
	}, nil
}

// normalizeURL trims raw and, when non-empty, requires an absolute http(s) URL.
func normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("unsupported URL %q", raw)
	}
	return u.String(), nil
}
