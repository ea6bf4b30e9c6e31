package postgrest

import (
	"context"
	"errors"
	"fmt"

	"Sparkle/internal/core/users"
	"Sparkle/internal/supabase"
)

type userRepo struct {
	client *supabase.Client
}

// NewUserRepository creates a user repository backed by the users table
func NewUserRepository(client *supabase.Client) users.UserRepository {
	return &userRepo{client: client}
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	var user users.User
	err := r.client.From("users").Select("*").Eq("id", id).Single(ctx, &user)
	if errors.Is(err, supabase.ErrNotFound) {
		return nil, users.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepo) GetByIDs(ctx context.Context, ids []string) ([]*users.User, error) {
	result := []*users.User{}
	if len(ids) == 0 {
		return result, nil
	}
	if err := r.client.From("users").Select("*").In("id", ids).Execute(ctx, &result); err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return result, nil
}

type insertUser struct {
	ID          string  `json:"id"`
	DisplayName *string `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
	Email       *string `json:"email"`
}

func (r *userRepo) Create(ctx context.Context, user *users.User) (*users.User, error) {
	row := insertUser{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
		Email:       user.Email,
	}
	var created users.User
	if err := r.client.From("users").Insert(ctx, row, &created); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &created, nil
}
