package postgrest

import (
	"context"
	"fmt"

	"Sparkle/internal/core/likes"
	"Sparkle/internal/supabase"
)

type likeRepo struct {
	client *supabase.Client
}

// NewLikeRepository creates a like repository backed by the likes table
func NewLikeRepository(client *supabase.Client) likes.Repository {
	return &likeRepo{client: client}
}

func (r *likeRepo) Exists(ctx context.Context, postID, userID string) (bool, error) {
	var rows []struct {
		ID string `json:"id"`
	}
	err := r.client.From("likes").
		Select("id").
		Eq("post_id", postID).
		Eq("user_id", userID).
		Limit(1).
		Execute(ctx, &rows)
	if err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}
	return len(rows) > 0, nil
}

func (r *likeRepo) Count(ctx context.Context, postID string) (int, error) {
	n, err := r.client.From("likes").Select("id").Eq("post_id", postID).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return n, nil
}

func (r *likeRepo) Create(ctx context.Context, postID, userID string) error {
	row := map[string]string{"post_id": postID, "user_id": userID}
	if err := r.client.From("likes").Insert(ctx, row, nil); err != nil {
		return fmt.Errorf("failed to create like: %w", err)
	}
	return nil
}

func (r *likeRepo) Delete(ctx context.Context, postID, userID string) error {
	err := r.client.From("likes").
		Eq("post_id", postID).
		Eq("user_id", userID).
		Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete like: %w", err)
	}
	return nil
}

func (r *likeRepo) ListPostIDsByUser(ctx context.Context, userID string) ([]string, error) {
	var rows []likes.Like
	err := r.client.From("likes").
		Select("post_id").
		Eq("user_id", userID).
		Order("created_at", true).
		Execute(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list liked posts: %w", err)
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.PostID)
	}
	return ids, nil
}

// CountsForPosts fetches the like rows for the page and tallies them locally;
// PostgREST aggregates are disabled on most projects.
func (r *likeRepo) CountsForPosts(ctx context.Context, postIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}

	var rows []likes.Like
	err := r.client.From("likes").
		Select("post_id").
		In("post_id", postIDs).
		Execute(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to count likes for posts: %w", err)
	}
	for _, row := range rows {
		counts[row.PostID]++
	}
	return counts, nil
}
