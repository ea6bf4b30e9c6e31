package web

import "Sparkle/internal/core/posts"

// Site-wide sharing metadata
const (
	SiteName           = "Social Media App"
	DefaultDescription = "Share and discover content with our social media platform"
	DefaultImage       = "https://images.unsplash.com/photo-1611162617213-7d7a39e9b1d7?w=1200&q=80"

	postFallbackTitle       = "Post"
	postFallbackDescription = "Check out this post"
)

// PageMeta is the Open Graph / Twitter Card data emitted in the page head
type PageMeta struct {
	Title       string
	Description string
	Image       string
	URL         string
	Type        string
	SiteName    string
	TwitterCard string
}

// DefaultMeta is used on every page that is not about a specific post
func DefaultMeta(pageURL string) PageMeta {
	return PageMeta{
		Title:       SiteName,
		Description: DefaultDescription,
		Image:       DefaultImage,
		URL:         pageURL,
		Type:        "website",
		SiteName:    SiteName,
		TwitterCard: "summary_large_image",
	}
}

// PostMeta describes a single post so link unfurlers show that post's
// preview. og:image is emitted only when the post has an image.
func PostMeta(post *posts.Post, postURL string) PageMeta {
	m := PageMeta{
		Title:       post.Title,
		Description: post.Body(),
		Image:       post.Image(),
		URL:         postURL,
		Type:        "article",
		SiteName:    SiteName,
		TwitterCard: "summary_large_image",
	}
	if m.Title == "" {
		m.Title = postFallbackTitle
	}
	if m.Description == "" {
		m.Description = postFallbackDescription
	}
	return m
}
