package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Sparkle/internal/core/likes"
	"Sparkle/internal/core/posts"
	"Sparkle/internal/core/users"
	"Sparkle/internal/db/migrations"
	"Sparkle/internal/realtime"
)

// setupTestDB connects to TEST_DATABASE_URL, applies migrations and empties
// the tables. Tests are skipped when the variable is unset.
func setupTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	require.NoError(t, db.Ping(), "failed to ping test database")
	require.NoError(t, migrations.Up(db))

	_, err = db.Exec(`TRUNCATE likes, posts, users CASCADE`)
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })
	return db, dsn
}

func TestIntegration_PostLifecycle(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	userRepo := NewUserRepository(db)
	postService := posts.NewService(NewPostRepository(db), nil)
	likeService := likes.NewService(NewLikeRepository(db), nil)
	userService := users.NewUserService(userRepo, nil)

	authorID := uuid.NewString()
	_, created, err := userService.EnsureUser(ctx, users.EnsureUserRequest{ID: authorID, DisplayName: "Ada"})
	require.NoError(t, err)
	assert.True(t, created)

	_, created, err = userService.EnsureUser(ctx, users.EnsureUserRequest{ID: authorID, DisplayName: "Ada"})
	require.NoError(t, err)
	assert.False(t, created)

	post, err := postService.CreatePost(ctx, authorID, posts.CreatePostRequest{Title: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "Hello", post.Title)
	assert.Nil(t, post.Content)
	assert.Nil(t, post.ImageURL)
	assert.Nil(t, post.ExternalURL)
	assert.Equal(t, authorID, post.UserID)

	viewerID := uuid.NewString()
	state, err := likeService.Toggle(ctx, viewerID, likes.State{PostID: post.ID})
	require.NoError(t, err)
	assert.Equal(t, likes.State{PostID: post.ID, Liked: true, Count: 1}, state)

	state, err = likeService.Toggle(ctx, viewerID, state)
	require.NoError(t, err)
	assert.Equal(t, likes.State{PostID: post.ID, Liked: false, Count: 0}, state)

	err = postService.DeletePost(ctx, viewerID, post.ID, true)
	assert.ErrorIs(t, err, posts.ErrNotAuthor)

	require.NoError(t, postService.DeletePost(ctx, authorID, post.ID, true))
	_, err = postService.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, posts.ErrNotFound)
}

func TestIntegration_BlankTitleRejectedByDatabase(t *testing.T) {
	db, _ := setupTestDB(t)

	_, err := NewPostRepository(db).Create(context.Background(), &posts.Post{Title: "   ", UserID: uuid.NewString()})

	require.Error(t, err)
	assert.Equal(t, "23514", posts.BackendCode(err))
}

func TestIntegration_NotifyTriggerReachesHub(t *testing.T) {
	db, dsn := setupTestDB(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hub := realtime.NewHub(nil)
	events := make(chan realtime.Event, 4)
	hub.Subscribe(func(ev realtime.Event) { events <- ev })
	go func() { _ = hub.Run(ctx, realtime.NewPQSource(dsn, realtime.PostsChannel, nil)) }()

	// The listener connects asynchronously; keep inserting until one is heard.
	repo := NewPostRepository(db)
	var created *posts.Post
	require.Eventually(t, func() bool {
		p, err := repo.Create(ctx, &posts.Post{Title: "Live", UserID: uuid.NewString()})
		if err != nil {
			return false
		}
		created = p
		select {
		case ev := <-events:
			return ev.Type == realtime.EventInsert
		case <-time.After(200 * time.Millisecond):
			return false
		}
	}, 8*time.Second, 100*time.Millisecond)
	require.NotNil(t, created)
}
