// Package postgrest implements the post, like and user repositories on the
// Supabase REST API. Requests run as the user whose access token is carried in
// the context (supabase.WithAccessToken), so row level security applies.
package postgrest

import (
	"context"
	"errors"
	"fmt"

	"Sparkle/internal/core/posts"
	"Sparkle/internal/supabase"
)

type postRepo struct {
	client *supabase.Client
}

// NewPostRepository creates a post repository backed by the posts table
func NewPostRepository(client *supabase.Client) posts.Repository {
	return &postRepo{client: client}
}

func (r *postRepo) List(ctx context.Context) ([]*posts.Post, error) {
	result := []*posts.Post{}
	if err := r.client.From("posts").Select("*").Order("created_at", true).Execute(ctx, &result); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return result, nil
}

func (r *postRepo) ListByIDs(ctx context.Context, ids []string) ([]*posts.Post, error) {
	result := []*posts.Post{}
	if len(ids) == 0 {
		return result, nil
	}
	err := r.client.From("posts").
		Select("*").
		In("id", ids).
		Order("created_at", true).
		Execute(ctx, &result)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts by id: %w", err)
	}
	return result, nil
}

func (r *postRepo) GetByID(ctx context.Context, id string) (*posts.Post, error) {
	var post posts.Post
	err := r.client.From("posts").Select("*").Eq("id", id).Single(ctx, &post)
	if errors.Is(err, supabase.ErrNotFound) {
		return nil, posts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

// insertPost is the row sent on insert; the backend fills id and timestamps
type insertPost struct {
	Title       string  `json:"title"`
	Content     *string `json:"content"`
	ImageURL    *string `json:"image_url"`
	ExternalURL *string `json:"external_url"`
	UserID      string  `json:"user_id"`
}

func (r *postRepo) Create(ctx context.Context, post *posts.Post) (*posts.Post, error) {
	row := insertPost{
		Title:       post.Title,
		Content:     post.Content,
		ImageURL:    post.ImageURL,
		ExternalURL: post.ExternalURL,
		UserID:      post.UserID,
	}
	var created posts.Post
	if err := r.client.From("posts").Insert(ctx, row, &created); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return &created, nil
}

func (r *postRepo) Delete(ctx context.Context, id string) error {
	if err := r.client.From("posts").Eq("id", id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}
