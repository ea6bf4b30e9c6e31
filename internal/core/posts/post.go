package posts

import (
	"time"
)

// MaxTitleGraphemes bounds post titles in user-perceived characters.
const MaxTitleGraphemes = 300

// MaxContentLength bounds post bodies in bytes.
const MaxContentLength = 40000

// Post represents a row in the posts table.
// Optional columns are pointers so absent values round-trip as NULL.
type Post struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     *string   `json:"content"`
	ImageURL    *string   `json:"image_url"`
	ExternalURL *string   `json:"external_url"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Body returns the content or "".
func (p *Post) Body() string {
	return deref(p.Content)
}

// Image returns the image URL or "".
func (p *Post) Image() string {
	return deref(p.ImageURL)
}

// Link returns the external URL or "".
func (p *Post) Link() string {
	return deref(p.ExternalURL)
}

// IsAuthor reports whether userID wrote the post. An empty userID never matches.
func (p *Post) IsAuthor(userID string) bool {
	return userID != "" && p.UserID == userID
}

// CreatePostRequest is the raw input for a new post, before normalization.
type CreatePostRequest struct {
	Title       string `json:"title"`
	Content     string `json:"content,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	ExternalURL string `json:"external_url,omitempty"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
