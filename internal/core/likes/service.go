package likes

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultCacheTTL bounds how stale a viewer's cached like set may get when
// they like posts from another client.
const DefaultCacheTTL = time.Minute

type likeService struct {
	repo          Repository
	cache         *LikeCache
	logger        *slog.Logger
	authoritative bool
}

// ServiceOption configures the like service.
type ServiceOption func(*likeService)

// WithAuthoritativeCount re-reads the like count from the backend after each
// toggle instead of adjusting the displayed count by one.
func WithAuthoritativeCount(enabled bool) ServiceOption {
	return func(s *likeService) {
		s.authoritative = enabled
	}
}

// WithCache overrides the default per-viewer like cache. nil disables caching.
func WithCache(cache *LikeCache) ServiceOption {
	return func(s *likeService) {
		s.cache = cache
	}
}

// NewService creates a new like service
func NewService(repo Repository, logger *slog.Logger, opts ...ServiceOption) Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &likeService{
		repo:   repo,
		logger: logger,
		cache:  NewLikeCache(DefaultCacheTTL, logger),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *likeService) Toggle(ctx context.Context, viewerID string, current State) (State, error) {
	if viewerID == "" {
		return current, ErrUnauthenticated
	}
	if current.PostID == "" {
		return current, ErrMissingPost
	}

	var err error
	if current.Liked {
		err = s.repo.Delete(ctx, current.PostID, viewerID)
	} else {
		err = s.repo.Create(ctx, current.PostID, viewerID)
	}
	if err != nil {
		// The cached like set may be what sent us the wrong way.
		if s.cache != nil {
			s.cache.Invalidate(viewerID)
		}
		if synced, ok := s.resync(ctx, viewerID, current); ok {
			s.logger.Warn("like state was stale, resynced from backend",
				"post_id", current.PostID, "user_id", viewerID, "liked", synced.Liked, "error", err)
			return synced, nil
		}
		s.logger.Error("error toggling like",
			"post_id", current.PostID, "user_id", viewerID, "was_liked", current.Liked, "error", err)
		return current, fmt.Errorf("failed to toggle like: %w", err)
	}

	next := current.toggled()
	if s.cache != nil {
		s.cache.Record(viewerID, next.PostID, next.Liked)
	}

	if s.authoritative {
		count, err := s.repo.Count(ctx, next.PostID)
		if err != nil {
			s.logger.Warn("failed to re-read like count, keeping local count",
				"post_id", next.PostID, "error", err)
		} else {
			next.Count = count
		}
	}
	return next, nil
}

// resync re-reads the like row after a failed write. When the backend
// already holds the state the toggle was aiming for (a duplicate insert, or
// a row removed elsewhere), that state is returned and the viewer's like set
// is reloaded. ok is false when the backend agrees with current, or cannot
// be read, so the original failure stands.
func (s *likeService) resync(ctx context.Context, viewerID string, current State) (State, bool) {
	liked, err := s.repo.Exists(ctx, current.PostID, viewerID)
	if err != nil || liked == current.Liked {
		return current, false
	}

	synced := current.toggled()
	if count, err := s.repo.Count(ctx, current.PostID); err == nil {
		synced.Count = count
	}
	if s.cache != nil {
		if _, err := s.LikedPostIDs(ctx, viewerID); err != nil {
			s.logger.Warn("failed to reload like set", "user_id", viewerID, "error", err)
		}
	}
	return synced, true
}

func (s *likeService) IsLiked(ctx context.Context, viewerID, postID string) (bool, error) {
	if viewerID == "" {
		return false, nil
	}
	if s.cache != nil {
		if liked, ok := s.cache.Lookup(viewerID, postID); ok {
			return liked, nil
		}
	}
	liked, err := s.repo.Exists(ctx, postID, viewerID)
	if err != nil {
		return false, fmt.Errorf("failed to check like state: %w", err)
	}
	return liked, nil
}

func (s *likeService) Count(ctx context.Context, postID string) (int, error) {
	count, err := s.repo.Count(ctx, postID)
	if err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return count, nil
}

func (s *likeService) LikedPostIDs(ctx context.Context, viewerID string) ([]string, error) {
	if viewerID == "" {
		return nil, ErrUnauthenticated
	}
	ids, err := s.repo.ListPostIDsByUser(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list liked posts: %w", err)
	}
	if s.cache != nil {
		s.cache.SetForUser(viewerID, ids)
	}
	return ids, nil
}

func (s *likeService) StatsForPosts(ctx context.Context, viewerID string, postIDs []string) (map[string]State, error) {
	stats := make(map[string]State, len(postIDs))
	if len(postIDs) == 0 {
		return stats, nil
	}

	counts, err := s.repo.CountsForPosts(ctx, postIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}

	if viewerID != "" && s.cache != nil && !s.cache.IsCached(viewerID) {
		if _, err := s.LikedPostIDs(ctx, viewerID); err != nil {
			// Counts are still useful; like buttons fall back to unliked.
			s.logger.Warn("failed to load viewer likes", "user_id", viewerID, "error", err)
		}
	}

	for _, id := range postIDs {
		st := State{PostID: id, Count: counts[id]}
		if viewerID != "" && s.cache != nil {
			st.Liked, _ = s.cache.Lookup(viewerID, id)
		}
		stats[id] = st
	}

	if viewerID != "" && s.cache == nil {
		ids, err := s.repo.ListPostIDsByUser(ctx, viewerID)
		if err != nil {
			s.logger.Warn("failed to load viewer likes", "user_id", viewerID, "error", err)
			return stats, nil
		}
		for _, id := range ids {
			if st, ok := stats[id]; ok {
				st.Liked = true
				stats[id] = st
			}
		}
	}
	return stats, nil
}
