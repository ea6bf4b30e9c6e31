package feed

import (
	"context"
	"log/slog"
	"sync"

	"Sparkle/internal/core/likes"
	"Sparkle/internal/core/posts"
	"Sparkle/internal/core/users"
)

// ShareURLFunc builds the canonical public URL of a post
type ShareURLFunc func(postID string) string

// CardLoader resolves like state, like count and author for posts.
// Each lookup fails independently: a failed lookup is logged and its field
// keeps a fallback value while the others still resolve.
type CardLoader struct {
	likes    likes.Service
	users    users.UserService
	shareURL ShareURLFunc
	logger   *slog.Logger
}

// NewCardLoader creates a card loader
func NewCardLoader(likeService likes.Service, userService users.UserService, shareURL ShareURLFunc, logger *slog.Logger) *CardLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &CardLoader{likes: likeService, users: userService, shareURL: shareURL, logger: logger}
}

// Load builds a single card, running its lookups concurrently
func (c *CardLoader) Load(ctx context.Context, viewerID string, post *posts.Post) Card {
	card := c.baseCard(viewerID, post)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		liked, err := c.likes.IsLiked(ctx, viewerID, post.ID)
		if err != nil {
			c.logger.Warn("failed to load like state", "post", post.ID, "error", err)
			return
		}
		card.Like.Liked = liked
	}()
	go func() {
		defer wg.Done()
		count, err := c.likes.Count(ctx, post.ID)
		if err != nil {
			c.logger.Warn("failed to load like count", "post", post.ID, "error", err)
			return
		}
		card.Like.Count = count
	}()
	go func() {
		defer wg.Done()
		profile, err := c.users.GetProfile(ctx, post.UserID)
		if err != nil {
			c.logger.Warn("failed to load author", "post", post.ID, "author", post.UserID, "error", err)
		}
		if profile != nil {
			card.Author = profile
		}
	}()
	wg.Wait()

	return card
}

// Cards builds cards for a page of posts with one batched like lookup and
// one batched author lookup, in the order of list.
func (c *CardLoader) Cards(ctx context.Context, viewerID string, list []*posts.Post) []Card {
	if len(list) == 0 {
		return []Card{}
	}

	postIDs := make([]string, 0, len(list))
	authorIDs := make([]string, 0, len(list))
	for _, p := range list {
		postIDs = append(postIDs, p.ID)
		authorIDs = append(authorIDs, p.UserID)
	}

	var (
		stats    map[string]likes.State
		profiles map[string]*users.Profile
		wg       sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		stats, err = c.likes.StatsForPosts(ctx, viewerID, postIDs)
		if err != nil {
			c.logger.Warn("failed to load like stats", "posts", len(postIDs), "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		profiles, err = c.users.GetProfiles(ctx, authorIDs)
		if err != nil {
			c.logger.Warn("failed to load authors", "authors", len(authorIDs), "error", err)
		}
	}()
	wg.Wait()

	cards := make([]Card, 0, len(list))
	for _, p := range list {
		card := c.baseCard(viewerID, p)
		if st, ok := stats[p.ID]; ok {
			card.Like = st
			card.Like.PostID = p.ID
		}
		if profile, ok := profiles[p.UserID]; ok && profile != nil {
			card.Author = profile
		}
		cards = append(cards, card)
	}
	return cards
}

func (c *CardLoader) baseCard(viewerID string, post *posts.Post) Card {
	card := Card{
		Post:      post,
		Author:    users.FallbackProfile(post.UserID),
		Like:      likes.State{PostID: post.ID},
		CanDelete: viewerID != "" && post.IsAuthor(viewerID),
	}
	if c.shareURL != nil {
		card.ShareURL = c.shareURL(post.ID)
	}
	return card
}
