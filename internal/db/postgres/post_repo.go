package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"Sparkle/internal/core/posts"
)

const postColumns = `id, title, content, image_url, external_url, user_id, created_at, updated_at`

type postgresPostRepo struct {
	db *sql.DB
}

// NewPostRepository creates a new PostgreSQL post repository
func NewPostRepository(db *sql.DB) posts.Repository {
	return &postgresPostRepo{db: db}
}

// List returns every post, newest first
func (r *postgresPostRepo) List(ctx context.Context) ([]*posts.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapError("failed to list posts", err)
	}
	return scanPosts(rows)
}

// ListByIDs returns the posts in ids, newest first
func (r *postgresPostRepo) ListByIDs(ctx context.Context, ids []string) ([]*posts.Post, error) {
	if len(ids) == 0 {
		return []*posts.Post{}, nil
	}
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = ANY($1::uuid[]) ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, wrapError("failed to list posts by id", err)
	}
	return scanPosts(rows)
}

// GetByID retrieves a post by ID
func (r *postgresPostRepo) GetByID(ctx context.Context, id string) (*posts.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, posts.ErrNotFound
	}
	if err != nil {
		return nil, wrapError("failed to get post", err)
	}
	return post, nil
}

// Create inserts a post and returns the stored row
func (r *postgresPostRepo) Create(ctx context.Context, post *posts.Post) (*posts.Post, error) {
	query := `
		INSERT INTO posts (id, title, content, image_url, external_url, user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + postColumns

	id := post.ID
	if id == "" {
		id = uuid.NewString()
	}

	created, err := scanPost(r.db.QueryRowContext(ctx, query,
		id, post.Title, post.Content, post.ImageURL, post.ExternalURL, post.UserID,
	))
	if err != nil {
		return nil, wrapError("failed to create post", err)
	}
	return created, nil
}

// Delete removes a post. Likes go with it via ON DELETE CASCADE.
func (r *postgresPostRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return wrapError("failed to delete post", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return wrapError("failed to check delete result", err)
	}
	if rowsAffected == 0 {
		return posts.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*posts.Post, error) {
	var p posts.Post
	err := row.Scan(
		&p.ID, &p.Title, &p.Content, &p.ImageURL, &p.ExternalURL,
		&p.UserID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPosts(rows *sql.Rows) ([]*posts.Post, error) {
	defer func() { _ = rows.Close() }()

	result := []*posts.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, wrapError("failed to scan post", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("error iterating posts", err)
	}
	return result, nil
}
