package post

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"Sparkle/internal/api/handlers"
	"Sparkle/internal/core/feed"
	"Sparkle/internal/core/likes"
	"Sparkle/internal/core/posts"
	"Sparkle/internal/core/users"
	"Sparkle/internal/session"
	"Sparkle/internal/supabase"
)

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
	return m.Called(ctx, viewerID, postID, confirmed).Error(0)
}

// fixedLikes reports the same count for every post and likes nothing
type fixedLikes struct {
	count int
}

func (f fixedLikes) Toggle(ctx context.Context, viewerID string, current likes.State) (likes.State, error) {
	return current, nil
}

func (f fixedLikes) IsLiked(ctx context.Context, viewerID, postID string) (bool, error) {
	return false, nil
}

func (f fixedLikes) Count(ctx context.Context, postID string) (int, error) {
	return f.count, nil
}

func (f fixedLikes) LikedPostIDs(ctx context.Context, viewerID string) ([]string, error) {
	return nil, nil
}

func (f fixedLikes) StatsForPosts(ctx context.Context, viewerID string, postIDs []string) (map[string]likes.State, error) {
	out := make(map[string]likes.State, len(postIDs))
	for _, id := range postIDs {
		out[id] = likes.State{PostID: id, Count: f.count}
	}
	return out, nil
}

// anonymousUsers resolves every author to the fallback profile
type anonymousUsers struct{}

func (anonymousUsers) GetProfile(ctx context.Context, userID string) (*users.Profile, error) {
	return users.FallbackProfile(userID), nil
}

func (anonymousUsers) GetProfiles(ctx context.Context, userIDs []string) (map[string]*users.Profile, error) {
	out := make(map[string]*users.Profile, len(userIDs))
	for _, id := range userIDs {
		out[id] = users.FallbackProfile(id)
	}
	return out, nil
}

func (anonymousUsers) EnsureUser(ctx context.Context, req users.EnsureUserRequest) (*users.User, bool, error) {
	return &users.User{ID: req.ID}, false, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRouter(svc posts.Service, viewerID string) http.Handler {
	cards := feed.NewCardLoader(fixedLikes{count: 2}, anonymousUsers{}, func(id string) string {
		return "https://sparkle.example.com/post/" + id
	}, quietLogger())
	read := NewReadHandler(svc, cards, quietLogger())
	write := NewWriteHandler(svc, quietLogger())

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if viewerID != "" {
				req = req.WithContext(session.WithViewer(req.Context(), &session.Viewer{UserID: viewerID}))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/api/posts", read.HandleList)
	r.Get("/api/posts/{id}", read.HandleGet)
	r.Post("/api/posts", write.HandleCreate)
	r.Delete("/api/posts/{id}", write.HandleDelete)
	return r
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handlers.ErrorResponse {
	t.Helper()
	var body handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandleList(t *testing.T) {
	svc := new(mockPostService)
	now := time.Now()
	svc.On("ListPosts", mock.Anything).Return([]*posts.Post{
		{ID: "p2", Title: "Second", UserID: "u1", CreatedAt: now},
		{ID: "p1", Title: "First", UserID: "u2", CreatedAt: now.Add(-time.Minute)},
	}, nil)

	rec := httptest.NewRecorder()
	newRouter(svc, "").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Posts []struct {
			ID        string         `json:"id"`
			Title     string         `json:"title"`
			LikeCount int            `json:"like_count"`
			URL       string         `json:"url"`
			Author    *users.Profile `json:"author"`
		} `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Posts, 2)
	assert.Equal(t, "p2", body.Posts[0].ID)
	assert.Equal(t, 2, body.Posts[0].LikeCount)
	assert.Equal(t, "https://sparkle.example.com/post/p2", body.Posts[0].URL)
	assert.Equal(t, users.AnonymousName, body.Posts[0].Author.Name)
}

func TestHandleList_BackendFailure(t *testing.T) {
	svc := new(mockPostService)
	svc.On("ListPosts", mock.Anything).Return(nil, errors.New("connection refused"))

	rec := httptest.NewRecorder()
	newRouter(svc, "").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "InternalServerError", decodeError(t, rec).Error)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestHandleGet(t *testing.T) {
	tests := []struct {
		name       string
		post       *posts.Post
		err        error
		wantStatus int
	}{
		{name: "found", post: &posts.Post{ID: "p1", Title: "Hi", UserID: "u1"}, wantStatus: http.StatusOK},
		{name: "not found", err: posts.ErrNotFound, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockPostService)
			if tt.post != nil {
				svc.On("GetPost", mock.Anything, "p1").Return(tt.post, nil)
			} else {
				svc.On("GetPost", mock.Anything, "p1").Return(nil, tt.err)
			}

			rec := httptest.NewRecorder()
			newRouter(svc, "").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts/p1", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandleCreate(t *testing.T) {
	t.Run("requires authentication", func(t *testing.T) {
		svc := new(mockPostService)

		rec := httptest.NewRecorder()
		newRouter(svc, "").ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"title":"Hi"}`)))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "AuthRequired", decodeError(t, rec).Error)
		svc.AssertNotCalled(t, "CreatePost", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("schema rejects unknown fields", func(t *testing.T) {
		svc := new(mockPostService)

		rec := httptest.NewRecorder()
		newRouter(svc, "u1").ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/posts",
			strings.NewReader(`{"title":"Hi","user_id":"someone-else"}`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "InvalidRequest", decodeError(t, rec).Error)
		svc.AssertNotCalled(t, "CreatePost", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("schema rejects missing title", func(t *testing.T) {
		svc := new(mockPostService)

		rec := httptest.NewRecorder()
		newRouter(svc, "u1").ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/posts",
			strings.NewReader(`{"content":"no title"}`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec).Message, "title")
	})

	t.Run("malformed JSON", func(t *testing.T) {
		svc := new(mockPostService)

		rec := httptest.NewRecorder()
		newRouter(svc, "u1").ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"title":`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("creates as the signed in user", func(t *testing.T) {
		svc := new(mockPostService)
		req := posts.CreatePostRequest{Title: "Hello"}
		svc.On("CreatePost", mock.Anything, "u1", req).
			Return(&posts.Post{ID: "p1", Title: "Hello", UserID: "u1"}, nil)

		rec := httptest.NewRecorder()
		newRouter(svc, "u1").ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/posts",
			strings.NewReader(`{"title":"Hello","content":null}`)))

		require.Equal(t, http.StatusCreated, rec.Code)
		var created posts.Post
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, "u1", created.UserID)
		assert.Nil(t, created.Content)
		svc.AssertExpectations(t)
	})

	t.Run("validation error from service", func(t *testing.T) {
		svc := new(mockPostService)
		svc.On("CreatePost", mock.Anything, "u1", mock.Anything).
			Return(nil, posts.NewValidationError("title", posts.MsgTitleRequired))

		rec := httptest.NewRecorder()
		newRouter(svc, "u1").ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"title":"  "}`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, posts.MsgTitleRequired, decodeError(t, rec).Message)
	})

	t.Run("duplicate maps to a readable conflict", func(t *testing.T) {
		svc := new(mockPostService)
		svc.On("CreatePost", mock.Anything, "u1", mock.Anything).
			Return(nil, &supabase.APIError{Status: http.StatusConflict, Code: "23505", Message: "duplicate key value"})

		rec := httptest.NewRecorder()
		newRouter(svc, "u1").ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"title":"Hi"}`)))

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, posts.MsgDuplicate, decodeError(t, rec).Message)
	})
}

func TestHandleDelete(t *testing.T) {
	t.Run("author deletes", func(t *testing.T) {
		svc := new(mockPostService)
		svc.On("DeletePost", mock.Anything, "u1", "p1", true).Return(nil)

		rec := httptest.NewRecorder()
		newRouter(svc, "u1").ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/posts/p1", nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("non author is forbidden", func(t *testing.T) {
		svc := new(mockPostService)
		svc.On("DeletePost", mock.Anything, "u2", "p1", true).Return(posts.ErrNotAuthor)

		rec := httptest.NewRecorder()
		newRouter(svc, "u2").ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/posts/p1", nil))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("anonymous never reaches the service", func(t *testing.T) {
		svc := new(mockPostService)

		rec := httptest.NewRecorder()
		newRouter(svc, "").ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/posts/p1", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		svc.AssertNotCalled(t, "DeletePost", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
