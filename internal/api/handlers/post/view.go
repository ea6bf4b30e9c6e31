package post

import (
	"Sparkle/internal/core/feed"
	"Sparkle/internal/core/posts"
	"Sparkle/internal/core/users"
)

// PostView is a post as the JSON API returns it
type PostView struct {
	*posts.Post
	Author    *users.Profile `json:"author"`
	LikeCount int            `json:"like_count"`
	Liked     bool           `json:"liked"`
	URL       string         `json:"url"`
}

func viewOf(card feed.Card) PostView {
	return PostView{
		Post:      card.Post,
		Author:    card.Author,
		LikeCount: card.Like.Count,
		Liked:     card.Like.Liked,
		URL:       card.ShareURL,
	}
}
