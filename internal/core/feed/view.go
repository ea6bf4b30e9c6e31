// Package feed assembles the post lists the app renders: the realtime feed,
// the viewer's liked posts, and the per-post cards with like and author data.
package feed

import (
	"Sparkle/internal/core/likes"
	"Sparkle/internal/core/posts"
	"Sparkle/internal/core/users"
)

// User-facing list messages
const (
	MsgFeedLoadFailed   = "Failed to load posts. Please try again."
	MsgFeedEmpty        = "No posts available. Be the first to create one!"
	MsgLikedLoadFailed  = "Failed to load liked posts. Please try again."
	MsgLikedEmpty       = "You haven't liked any posts yet."
	MsgLikedLoginNeeded = "You must be logged in to view liked posts"
)

// View is the renderable state of a post list.
// While Loading is set the list shows only a loading indicator.
type View struct {
	Posts   []*posts.Post
	Err     string
	Notice  string
	Empty   string
	Loading bool
}

// ShowEmpty reports whether the empty-state message should be rendered
func (v View) ShowEmpty() bool {
	return !v.Loading && v.Err == "" && v.Notice == "" && len(v.Posts) == 0
}

// Card is everything one post card displays
type Card struct {
	Post      *posts.Post
	Author    *users.Profile
	Like      likes.State
	ShareURL  string
	CanDelete bool
}
