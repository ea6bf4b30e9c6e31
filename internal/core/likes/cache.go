package likes

import (
	"log/slog"
	"sync"
	"time"
)

// LikeCache keeps each viewer's liked post IDs in memory so a feed page can
// render like buttons without one lookup per card.
type LikeCache struct {
	mu     sync.RWMutex
	liked  map[string]map[string]struct{} // userID -> postID set
	expiry map[string]time.Time           // userID -> expiry time
	ttl    time.Duration
	logger *slog.Logger
}

// NewLikeCache creates a new like cache with the specified TTL
func NewLikeCache(ttl time.Duration, logger *slog.Logger) *LikeCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &LikeCache{
		liked:  make(map[string]map[string]struct{}),
		expiry: make(map[string]time.Time),
		ttl:    ttl,
		logger: logger,
	}
}

// Lookup returns whether userID liked postID, and whether the answer came
// from a live cache entry.
func (c *LikeCache) Lookup(userID, postID string) (liked, cached bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	expiry, exists := c.expiry[userID]
	if !exists || time.Now().After(expiry) {
		return false, false
	}
	_, liked = c.liked[userID][postID]
	return liked, true
}

// IsCached returns true if the user's likes are cached and not expired
func (c *LikeCache) IsCached(userID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	expiry, exists := c.expiry[userID]
	return exists && time.Now().Before(expiry)
}

// SetForUser replaces all cached likes for a user
func (c *LikeCache) SetForUser(userID string, postIDs []string) {
	set := make(map[string]struct{}, len(postIDs))
	for _, id := range postIDs {
		set[id] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.liked[userID] = set
	c.expiry[userID] = time.Now().Add(c.ttl)

	c.logger.Debug("like cache updated", "user_id", userID, "like_count", len(set))
}

// Record applies a toggle result to a cached user. Users without a live
// entry are left alone so a partial set is never mistaken for a full one.
func (c *LikeCache) Record(userID, postID string, liked bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiry, exists := c.expiry[userID]
	if !exists || time.Now().After(expiry) {
		return
	}
	if liked {
		c.liked[userID][postID] = struct{}{}
	} else {
		delete(c.liked[userID], postID)
	}
	// Active users keep their cache fresh
	c.expiry[userID] = time.Now().Add(c.ttl)
}

// Invalidate removes all cached likes for a user
func (c *LikeCache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.liked, userID)
	delete(c.expiry, userID)

	c.logger.Debug("like cache invalidated", "user_id", userID)
}
