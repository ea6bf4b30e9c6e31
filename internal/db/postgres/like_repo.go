package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"Sparkle/internal/core/likes"
)

type postgresLikeRepo struct {
	db *sql.DB
}

// NewLikeRepository creates a new PostgreSQL like repository
func NewLikeRepository(db *sql.DB) likes.Repository {
	return &postgresLikeRepo{db: db}
}

func (r *postgresLikeRepo) Exists(ctx context.Context, postID, userID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM likes WHERE post_id = $1 AND user_id = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, postID, userID).Scan(&exists); err != nil {
		return false, wrapError("failed to check like", err)
	}
	return exists, nil
}

func (r *postgresLikeRepo) Count(ctx context.Context, postID string) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes WHERE post_id = $1`, postID).Scan(&count); err != nil {
		return 0, wrapError("failed to count likes", err)
	}
	return count, nil
}

// Create inserts a like row. A duplicate (post, user) pair surfaces as SQLSTATE 23505.
func (r *postgresLikeRepo) Create(ctx context.Context, postID, userID string) error {
	query := `INSERT INTO likes (post_id, user_id) VALUES ($1, $2)`

	if _, err := r.db.ExecContext(ctx, query, postID, userID); err != nil {
		return wrapError("failed to create like", err)
	}
	return nil
}

// Delete removes the like row. Deleting a missing like is not an error.
func (r *postgresLikeRepo) Delete(ctx context.Context, postID, userID string) error {
	query := `DELETE FROM likes WHERE post_id = $1 AND user_id = $2`

	if _, err := r.db.ExecContext(ctx, query, postID, userID); err != nil {
		return wrapError("failed to delete like", err)
	}
	return nil
}

func (r *postgresLikeRepo) ListPostIDsByUser(ctx context.Context, userID string) ([]string, error) {
	query := `SELECT post_id FROM likes WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, wrapError("failed to list liked posts", err)
	}
	defer func() { _ = rows.Close() }()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapError("failed to scan liked post", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("error iterating liked posts", err)
	}
	return ids, nil
}

func (r *postgresLikeRepo) CountsForPosts(ctx context.Context, postIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}

	query := `
		SELECT post_id, COUNT(*)
		FROM likes
		WHERE post_id = ANY($1::uuid[])
		GROUP BY post_id`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(postIDs))
	if err != nil {
		return nil, wrapError("failed to count likes for posts", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, wrapError("failed to scan like count", err)
		}
		counts[id] = count
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("error iterating like counts", err)
	}
	return counts, nil
}
