package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"Sparkle/internal/core/users"
)

const userColumns = `id, display_name, avatar_url, email, created_at, updated_at`

type postgresUserRepo struct {
	db *sql.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sql.DB) users.UserRepository {
	return &postgresUserRepo{db: db}
}

// Create inserts a new user into the users table
func (r *postgresUserRepo) Create(ctx context.Context, user *users.User) (*users.User, error) {
	query := `
		INSERT INTO users (id, display_name, avatar_url, email)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	created, err := scanUser(r.db.QueryRowContext(ctx, query,
		user.ID, user.DisplayName, user.AvatarURL, user.Email,
	))
	if err != nil {
		return nil, wrapError("failed to create user", err)
	}
	return created, nil
}

// GetByID retrieves a user by ID
func (r *postgresUserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, users.ErrUserNotFound
	}
	if err != nil {
		return nil, wrapError("failed to get user", err)
	}
	return user, nil
}

// GetByIDs retrieves the users that exist among ids
func (r *postgresUserRepo) GetByIDs(ctx context.Context, ids []string) ([]*users.User, error) {
	if len(ids) == 0 {
		return []*users.User{}, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1::uuid[])`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, wrapError("failed to get users", err)
	}
	defer func() { _ = rows.Close() }()

	result := []*users.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, wrapError("failed to scan user", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("error iterating users", err)
	}
	return result, nil
}

func scanUser(row rowScanner) (*users.User, error) {
	var u users.User
	if err := row.Scan(&u.ID, &u.DisplayName, &u.AvatarURL, &u.Email, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
