package users

import (
	"net/url"
	"time"
)

// AnonymousName is shown for authors without a display name.
const AnonymousName = "Anonymous"

// User represents a row in the users table.
type User struct {
	ID          string    `json:"id"`
	DisplayName *string   `json:"display_name"`
	AvatarURL   *string   `json:"avatar_url"`
	Email       *string   `json:"email"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Profile is the author block a post card renders. Name and AvatarURL are
// always populated, falling back to defaults.
type Profile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// EnsureUserRequest carries identity data from the auth provider on sign in.
type EnsureUserRequest struct {
	ID          string
	Email       string
	DisplayName string
	AvatarURL   string
}

// DefaultAvatarURL returns a generated avatar seeded by the user ID.
func DefaultAvatarURL(userID string) string {
	return "https://api.dicebear.com/7.x/avataaars/svg?seed=" + url.QueryEscape(userID)
}

// FallbackProfile is the profile shown when the author row is missing or
// could not be loaded.
func FallbackProfile(userID string) *Profile {
	return &Profile{
		ID:        userID,
		Name:      AnonymousName,
		AvatarURL: DefaultAvatarURL(userID),
	}
}

// ProfileOf builds a Profile from u, applying fallbacks to blank fields.
func ProfileOf(u *User) *Profile {
	p := FallbackProfile(u.ID)
	if u.DisplayName != nil && *u.DisplayName != "" {
		p.Name = *u.DisplayName
	}
	if u.AvatarURL != nil && *u.AvatarURL != "" {
		p.AvatarURL = *u.AvatarURL
	}
	return p
}
