package feed

import (
	"context"
	"io"
	"log/slog"

	"github.com/stretchr/testify/mock"

	"Sparkle/internal/core/likes"
	"Sparkle/internal/core/posts"
	"Sparkle/internal/core/users"
	"Sparkle/internal/realtime"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockPostService struct {
	mock.Mock
}

func (m *mockPostService) ListPosts(ctx context.Context) ([]*posts.Post, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*posts.Post), args.Error(1)
}

func (m *mockPostService) ListPostsByIDs(ctx context.Context, ids []string) ([]*posts.Post, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*posts.Post), args.Error(1)
}

func (m *mockPostService) GetPost(ctx context.Context, id string) (*posts.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*posts.Post), args.Error(1)
}

func (m *mockPostService) CreatePost(ctx context.Context, authorID string, req posts.CreatePostRequest) (*posts.Post, error) {
	args := m.Called(ctx, authorID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*posts.Post), args.Error(1)
}

func (m *mockPostService) DeletePost(ctx context.Context, viewerID, postID string, confirmed bool) error {
	args := m.Called(ctx, viewerID, postID, confirmed)
	return args.Error(0)
}

type mockLikeService struct {
	mock.Mock
}

func (m *mockLikeService) Toggle(ctx context.Context, viewerID string, current likes.State) (likes.State, error) {
	args := m.Called(ctx, viewerID, current)
	return args.Get(0).(likes.State), args.Error(1)
}

func (m *mockLikeService) IsLiked(ctx context.Context, viewerID, postID string) (bool, error) {
	args := m.Called(ctx, viewerID, postID)
	return args.Bool(0), args.Error(1)
}

func (m *mockLikeService) Count(ctx context.Context, postID string) (int, error) {
	args := m.Called(ctx, postID)
	return args.Int(0), args.Error(1)
}

func (m *mockLikeService) LikedPostIDs(ctx context.Context, viewerID string) ([]string, error) {
	args := m.Called(ctx, viewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockLikeService) StatsForPosts(ctx context.Context, viewerID string, postIDs []string) (map[string]likes.State, error) {
	args := m.Called(ctx, viewerID, postIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]likes.State), args.Error(1)
}

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) GetProfile(ctx context.Context, userID string) (*users.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.Profile), args.Error(1)
}

func (m *mockUserService) GetProfiles(ctx context.Context, userIDs []string) (map[string]*users.Profile, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*users.Profile), args.Error(1)
}

func (m *mockUserService) EnsureUser(ctx context.Context, req users.EnsureUserRequest) (*users.User, bool, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*users.User), args.Bool(1), args.Error(2)
}

var _ ChangeNotifier = (*realtime.Hub)(nil)
