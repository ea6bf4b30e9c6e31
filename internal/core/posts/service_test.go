package posts

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"Sparkle/internal/supabase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testPostID = "5f0c7c1e-3a57-4d8c-9a7e-8f3b2f6e9d10"
	authorID   = "11111111-1111-1111-1111-111111111111"
	strangerID = "22222222-2222-2222-2222-222222222222"
)

type mockPostRepository struct {
	mock.Mock
}

func (m *mockPostRepository) List(ctx context.Context) ([]*Post, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Post), args.Error(1)
}

func (m *mockPostRepository) ListByIDs(ctx context.Context, ids []string) ([]*Post, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Post), args.Error(1)
}

func (m *mockPostRepository) GetByID(ctx context.Context, id string) (*Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Post), args.Error(1)
}

func (m *mockPostRepository) Create(ctx context.Context, post *Post) (*Post, error) {
	args := m.Called(ctx, post)
	if fn, ok := args.Get(0).(func(context.Context, *Post) *Post); ok {
		return fn(ctx, post), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Post), args.Error(1)
}

func (m *mockPostRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type stubPreviewer struct {
	image string
	calls int
}

func (s *stubPreviewer) PreviewImage(_ context.Context, _ string) (string, bool) {
	s.calls++
	return s.image, s.image != ""
}

// echoCreate makes the mock return the inserted post with an ID assigned.
func echoCreate(repo *mockPostRepository) {
	repo.On("Create", mock.Anything, mock.AnythingOfType("*posts.Post")).
		Return(func(_ context.Context, p *Post) *Post {
			cp := *p
			cp.ID = testPostID
			cp.CreatedAt = time.Now()
			return &cp
		}, nil)
}

func TestCreatePost_MinimalPostHasNullOptionals(t *testing.T) {
	repo := new(mockPostRepository)
	echoCreate(repo)
	svc := NewService(repo, nil)

	post, err := svc.CreatePost(context.Background(), authorID, CreatePostRequest{Title: "Hello", Content: ""})
	require.NoError(t, err)

	assert.Equal(t, "Hello", post.Title)
	assert.Nil(t, post.Content)
	assert.Nil(t, post.ImageURL)
	assert.Nil(t, post.ExternalURL)
	assert.Equal(t, authorID, post.UserID)
	repo.AssertNumberOfCalls(t, "Create", 1)
}

func TestCreatePost_RejectsBlankTitleWithoutWriting(t *testing.T) {
	for _, title := range []string{"", "   ", "\t\n"} {
		repo := new(mockPostRepository)
		svc := NewService(repo, nil)

		_, err := svc.CreatePost(context.Background(), authorID, CreatePostRequest{Title: title, Content: "body"})
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
		assert.Equal(t, MsgTitleRequired, UserMessage(err))
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	}
}

func TestCreatePost_RequiresAuthor(t *testing.T) {
	repo := new(mockPostRepository)
	svc := NewService(repo, nil)

	_, err := svc.CreatePost(context.Background(), "", CreatePostRequest{Title: "Hello"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, MsgLoginRequired, UserMessage(err))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestNormalizeRequest(t *testing.T) {
	tests := []struct {
		name      string
		req       CreatePostRequest
		wantField string
		check     func(t *testing.T, p *Post)
	}{
		{
			name: "trims everything",
			req:  CreatePostRequest{Title: "  Hi  ", Content: "  body ", ExternalURL: " https://example.com/a "},
			check: func(t *testing.T, p *Post) {
				assert.Equal(t, "Hi", p.Title)
				assert.Equal(t, "body", p.Body())
				assert.Equal(t, "https://example.com/a", p.Link())
			},
		},
		{
			name:      "bad link scheme",
			req:       CreatePostRequest{Title: "Hi", ExternalURL: "javascript:alert(1)"},
			wantField: "external_url",
		},
		{
			name:      "relative image URL",
			req:       CreatePostRequest{Title: "Hi", ImageURL: "/img.png"},
			wantField: "image_url",
		},
		{
			name:      "title too long",
			req:       CreatePostRequest{Title: strings.Repeat("a", MaxTitleGraphemes+1)},
			wantField: "title",
		},
		{
			name: "emoji title counted by grapheme",
			req:  CreatePostRequest{Title: strings.Repeat("👍🏽", MaxTitleGraphemes)},
			check: func(t *testing.T, p *Post) {
				assert.NotEmpty(t, p.Title)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post, err := NormalizeRequest(tt.req)
			if tt.wantField != "" {
				var valErr *ValidationError
				require.True(t, errors.As(err, &valErr))
				assert.Equal(t, tt.wantField, valErr.Field)
				return
			}
			require.NoError(t, err)
			tt.check(t, post)
		})
	}
}

func TestCreatePost_UsesLinkPreviewWhenNoImage(t *testing.T) {
	repo := new(mockPostRepository)
	echoCreate(repo)
	previewer := &stubPreviewer{image: "https://example.com/og.png"}
	svc := NewService(repo, nil, WithLinkPreviewer(previewer))

	post, err := svc.CreatePost(context.Background(), authorID, CreatePostRequest{Title: "Link", ExternalURL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/og.png", post.Image())

	// An explicit image is never replaced.
	post, err = svc.CreatePost(context.Background(), authorID, CreatePostRequest{
		Title: "Link", ExternalURL: "https://example.com", ImageURL: "https://img.example.com/mine.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/mine.png", post.Image())
	assert.Equal(t, 1, previewer.calls)
}

func TestCreatePost_BackendConstraintMapping(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{code: "23505", want: MsgDuplicate},
		{code: "23502", want: MsgMissingField},
		{code: "42P01", want: MsgTableMissing},
		{code: "P0001", want: "custom trigger message"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			repo := new(mockPostRepository)
			repo.On("Create", mock.Anything, mock.Anything).
				Return(nil, &supabase.APIError{Status: 400, Code: tt.code, Message: "custom trigger message"})
			svc := NewService(repo, nil)

			_, err := svc.CreatePost(context.Background(), authorID, CreatePostRequest{Title: "Hello"})
			require.Error(t, err)
			assert.Equal(t, tt.want, UserMessage(err))
		})
	}
}

func TestUserMessage_GenericFailure(t *testing.T) {
	assert.Equal(t, MsgGenericFailure, UserMessage(errors.New("connection reset")))
	assert.Equal(t, "", UserMessage(nil))
}

func TestGetPost(t *testing.T) {
	t.Run("malformed id is not found without a lookup", func(t *testing.T) {
		repo := new(mockPostRepository)
		svc := NewService(repo, nil)

		_, err := svc.GetPost(context.Background(), "not-a-uuid")
		assert.ErrorIs(t, err, ErrNotFound)
		repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("missing row", func(t *testing.T) {
		repo := new(mockPostRepository)
		repo.On("GetByID", mock.Anything, testPostID).Return(nil, ErrNotFound)
		svc := NewService(repo, nil)

		_, err := svc.GetPost(context.Background(), testPostID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("backend failure is wrapped", func(t *testing.T) {
		repo := new(mockPostRepository)
		repo.On("GetByID", mock.Anything, testPostID).Return(nil, errors.New("timeout"))
		svc := NewService(repo, nil)

		_, err := svc.GetPost(context.Background(), testPostID)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}

func TestListPostsByIDs_EmptySkipsBackend(t *testing.T) {
	repo := new(mockPostRepository)
	svc := NewService(repo, nil)

	posts, err := svc.ListPostsByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, posts)
	repo.AssertNotCalled(t, "ListByIDs", mock.Anything, mock.Anything)
}

func TestDeletePost(t *testing.T) {
	post := &Post{ID: testPostID, Title: "Mine", UserID: authorID}

	t.Run("author with confirmation deletes", func(t *testing.T) {
		repo := new(mockPostRepository)
		repo.On("GetByID", mock.Anything, testPostID).Return(post, nil)
		repo.On("Delete", mock.Anything, testPostID).Return(nil)
		svc := NewService(repo, nil)

		require.NoError(t, svc.DeletePost(context.Background(), authorID, testPostID, true))
		repo.AssertExpectations(t)
	})

	t.Run("non-author never issues a delete", func(t *testing.T) {
		repo := new(mockPostRepository)
		repo.On("GetByID", mock.Anything, testPostID).Return(post, nil)
		svc := NewService(repo, nil)

		err := svc.DeletePost(context.Background(), strangerID, testPostID, true)
		assert.ErrorIs(t, err, ErrNotAuthor)
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("anonymous never issues a delete", func(t *testing.T) {
		repo := new(mockPostRepository)
		svc := NewService(repo, nil)

		err := svc.DeletePost(context.Background(), "", testPostID, true)
		assert.ErrorIs(t, err, ErrUnauthenticated)
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("unconfirmed never issues a delete", func(t *testing.T) {
		repo := new(mockPostRepository)
		svc := NewService(repo, nil)

		err := svc.DeletePost(context.Background(), authorID, testPostID, false)
		assert.ErrorIs(t, err, ErrNotConfirmed)
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("backend failure surfaces", func(t *testing.T) {
		repo := new(mockPostRepository)
		repo.On("GetByID", mock.Anything, testPostID).Return(post, nil)
		repo.On("Delete", mock.Anything, testPostID).Return(errors.New("boom"))
		svc := NewService(repo, nil)

		err := svc.DeletePost(context.Background(), authorID, testPostID, true)
		require.Error(t, err)
	})
}
