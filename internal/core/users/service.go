package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultProfileCacheSize = 1000
	defaultProfileCacheTTL  = 5 * time.Minute
)

type cachedProfile struct {
	profile   *Profile
	expiresAt time.Time
}

type userService struct {
	userRepo UserRepository
	logger   *slog.Logger
	cache    *lru.Cache[string, cachedProfile]
	cacheTTL time.Duration
}

// NewUserService creates a new user service. Profiles are cached in a bounded LRU.
func NewUserService(userRepo UserRepository, logger *slog.Logger) UserService {
	if logger == nil {
		logger = slog.Default()
	}
	cache, err := lru.New[string, cachedProfile](defaultProfileCacheSize)
	if err != nil {
		// Only fails for a non-positive size.
		logger.Error("failed to create profile cache", "error", err)
		cache, _ = lru.New[string, cachedProfile](1)
	}
	return &userService{
		userRepo: userRepo,
		logger:   logger,
		cache:    cache,
		cacheTTL: defaultProfileCacheTTL,
	}
}

func (s *userService) cached(userID string) (*Profile, bool) {
	entry, ok := s.cache.Get(userID)
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.profile, true
}

func (s *userService) remember(p *Profile) {
	s.cache.Add(p.ID, cachedProfile{profile: p, expiresAt: time.Now().Add(s.cacheTTL)})
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return FallbackProfile(userID), ErrUserIDRequired
	}
	if p, ok := s.cached(userID); ok {
		return p, nil
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			p := FallbackProfile(userID)
			s.remember(p)
			return p, nil
		}
		s.logger.Warn("failed to load author profile", "user_id", userID, "error", err)
		return FallbackProfile(userID), fmt.Errorf("failed to get user %s: %w", userID, err)
	}

	p := ProfileOf(user)
	s.remember(p)
	return p, nil
}

func (s *userService) GetProfiles(ctx context.Context, userIDs []string) (map[string]*Profile, error) {
	profiles := make(map[string]*Profile, len(userIDs))
	var missing []string
	for _, id := range userIDs {
		if _, seen := profiles[id]; seen {
			continue
		}
		if p, ok := s.cached(id); ok {
			profiles[id] = p
			continue
		}
		profiles[id] = nil
		missing = append(missing, id)
	}

	var lookupErr error
	if len(missing) > 0 {
		found, err := s.userRepo.GetByIDs(ctx, missing)
		if err != nil {
			s.logger.Warn("failed to load author profiles", "count", len(missing), "error", err)
			lookupErr = fmt.Errorf("failed to get users: %w", err)
		}
		for _, u := range found {
			p := ProfileOf(u)
			s.remember(p)
			profiles[u.ID] = p
		}
	}

	for id, p := range profiles {
		if p == nil {
			profiles[id] = FallbackProfile(id)
			if lookupErr == nil {
				s.remember(profiles[id])
			}
		}
	}
	return profiles, lookupErr
}

func (s *userService) EnsureUser(ctx context.Context, req EnsureUserRequest) (*User, bool, error) {
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" {
		return nil, false, ErrUserIDRequired
	}

	existing, err := s.userRepo.GetByID(ctx, req.ID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, false, fmt.Errorf("failed to check existing user: %w", err)
	}

	user := &User{
		ID:          req.ID,
		DisplayName: optional(strings.TrimSpace(req.DisplayName)),
		AvatarURL:   optional(strings.TrimSpace(req.AvatarURL)),
		Email:       optional(strings.TrimSpace(req.Email)),
	}
	created, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}

	s.cache.Remove(req.ID)
	s.logger.Info("user created on first login", "user_id", req.ID)
	return created, true, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
