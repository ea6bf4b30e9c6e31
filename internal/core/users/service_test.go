package users

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockUserRepository) GetByIDs(ctx context.Context, ids []string) ([]*User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*User), args.Error(1)
}

func (m *mockUserRepository) Create(ctx context.Context, user *User) (*User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func strPtr(s string) *string { return &s }

func TestGetProfile(t *testing.T) {
	t.Run("uses display name and avatar", func(t *testing.T) {
		repo := new(mockUserRepository)
		repo.On("GetByID", mock.Anything, "u1").
			Return(&User{ID: "u1", DisplayName: strPtr("Ada"), AvatarURL: strPtr("https://img/ada.png")}, nil).Once()
		svc := NewUserService(repo, nil)

		p, err := svc.GetProfile(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, "Ada", p.Name)
		assert.Equal(t, "https://img/ada.png", p.AvatarURL)

		// Second call is served from cache.
		_, err = svc.GetProfile(context.Background(), "u1")
		require.NoError(t, err)
		repo.AssertNumberOfCalls(t, "GetByID", 1)
	})

	t.Run("blank fields fall back", func(t *testing.T) {
		repo := new(mockUserRepository)
		repo.On("GetByID", mock.Anything, "u2").Return(&User{ID: "u2", DisplayName: strPtr("")}, nil)
		svc := NewUserService(repo, nil)

		p, err := svc.GetProfile(context.Background(), "u2")
		require.NoError(t, err)
		assert.Equal(t, AnonymousName, p.Name)
		assert.Equal(t, "https://api.dicebear.com/7.x/avataaars/svg?seed=u2", p.AvatarURL)
	})

	t.Run("missing row falls back without error", func(t *testing.T) {
		repo := new(mockUserRepository)
		repo.On("GetByID", mock.Anything, "ghost").Return(nil, ErrUserNotFound)
		svc := NewUserService(repo, nil)

		p, err := svc.GetProfile(context.Background(), "ghost")
		require.NoError(t, err)
		assert.Equal(t, AnonymousName, p.Name)
	})

	t.Run("backend error returns fallback and error", func(t *testing.T) {
		repo := new(mockUserRepository)
		repo.On("GetByID", mock.Anything, "u3").Return(nil, errors.New("timeout"))
		svc := NewUserService(repo, nil)

		p, err := svc.GetProfile(context.Background(), "u3")
		require.Error(t, err)
		require.NotNil(t, p)
		assert.Equal(t, AnonymousName, p.Name)
	})
}

func TestGetProfiles_BatchesMisses(t *testing.T) {
	repo := new(mockUserRepository)
	repo.On("GetByID", mock.Anything, "u1").Return(&User{ID: "u1", DisplayName: strPtr("Ada")}, nil)
	repo.On("GetByIDs", mock.Anything, []string{"u2", "u3"}).
		Return([]*User{{ID: "u2", DisplayName: strPtr("Grace")}}, nil)
	svc := NewUserService(repo, nil)

	_, err := svc.GetProfile(context.Background(), "u1")
	require.NoError(t, err)

	profiles, err := svc.GetProfiles(context.Background(), []string{"u1", "u2", "u3", "u2"})
	require.NoError(t, err)
	assert.Len(t, profiles, 3)
	assert.Equal(t, "Ada", profiles["u1"].Name)
	assert.Equal(t, "Grace", profiles["u2"].Name)
	assert.Equal(t, AnonymousName, profiles["u3"].Name)
	repo.AssertNumberOfCalls(t, "GetByIDs", 1)
}

func TestEnsureUser(t *testing.T) {
	t.Run("creates on first login", func(t *testing.T) {
		repo := new(mockUserRepository)
		repo.On("GetByID", mock.Anything, "u1").Return(nil, ErrUserNotFound)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(u *User) bool {
			return u.ID == "u1" && *u.DisplayName == "Ada Lovelace" && *u.Email == "ada@example.com" && u.AvatarURL == nil
		})).Return(&User{ID: "u1"}, nil)
		svc := NewUserService(repo, nil)

		_, created, err := svc.EnsureUser(context.Background(), EnsureUserRequest{
			ID: "u1", Email: "ada@example.com", DisplayName: " Ada Lovelace ",
		})
		require.NoError(t, err)
		assert.True(t, created)
		repo.AssertExpectations(t)
	})

	t.Run("existing user is left alone", func(t *testing.T) {
		repo := new(mockUserRepository)
		repo.On("GetByID", mock.Anything, "u1").Return(&User{ID: "u1"}, nil)
		svc := NewUserService(repo, nil)

		_, created, err := svc.EnsureUser(context.Background(), EnsureUserRequest{ID: "u1"})
		require.NoError(t, err)
		assert.False(t, created)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("blank id", func(t *testing.T) {
		svc := NewUserService(new(mockUserRepository), nil)
		_, _, err := svc.EnsureUser(context.Background(), EnsureUserRequest{ID: " "})
		assert.ErrorIs(t, err, ErrUserIDRequired)
	})
}
