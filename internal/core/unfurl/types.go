// Package unfurl fetches OpenGraph metadata for external links so posts that
// only carry a link can still show a preview image.
package unfurl

// Preview is the metadata extracted from a linked page.
type Preview struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	SiteName    string `json:"siteName"`
	Domain      string `json:"domain"`
}
