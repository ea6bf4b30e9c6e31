package feed

import (
	"context"
	"log/slog"

	"Sparkle/internal/core/likes"
	"Sparkle/internal/core/posts"
)

// LikedList resolves the posts a viewer has liked. It has no change listener;
// the list is as fresh as its last Load.
type LikedList struct {
	posts  posts.Service
	likes  likes.Service
	logger *slog.Logger
}

// NewLikedList creates a liked-posts list
func NewLikedList(postService posts.Service, likeService likes.Service, logger *slog.Logger) *LikedList {
	if logger == nil {
		logger = slog.Default()
	}
	return &LikedList{posts: postService, likes: likeService, logger: logger}
}

// Load returns the viewer's liked posts, newest first. Anonymous viewers get
// an empty list with an explanatory notice rather than an error.
func (l *LikedList) Load(ctx context.Context, viewerID string) View {
	view := View{Empty: MsgLikedEmpty, Posts: []*posts.Post{}}
	if viewerID == "" {
		view.Notice = MsgLikedLoginNeeded
		return view
	}

	ids, err := l.likes.LikedPostIDs(ctx, viewerID)
	if err != nil {
		l.logger.Error("failed to load liked post ids", "viewer", viewerID, "error", err)
		view.Err = MsgLikedLoadFailed
		return view
	}
	if len(ids) == 0 {
		return view
	}

	liked, err := l.posts.ListPostsByIDs(ctx, ids)
	if err != nil {
		l.logger.Error("failed to load liked posts", "viewer", viewerID, "error", err)
		view.Err = MsgLikedLoadFailed
		return view
	}
	view.Posts = liked
	return view
}
