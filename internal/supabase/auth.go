package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// User is the GoTrue user object.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	CreatedAt    time.Time      `json:"created_at"`
}

// MetadataString returns the first non-empty string found under keys in the
// user's metadata.
func (u *User) MetadataString(keys ...string) string {
	for _, k := range keys {
		if v, ok := u.UserMetadata[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// Session is a GoTrue token grant.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         User   `json:"user"`
}

// Expiry returns when the access token expires.
func (s *Session) Expiry() time.Time {
	if s.ExpiresAt > 0 {
		return time.Unix(s.ExpiresAt, 0)
	}
	return time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
}

// GetUser returns the user owning accessToken.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var user User
	resp, err := c.WithToken(accessToken).request(ctx).
		SetResult(&user).
		Get("/auth/v1/user")
	if err := check(resp, err, "get user"); err != nil {
		return nil, err
	}
	return &user, nil
}

// AuthorizeURL returns the URL that starts an OAuth sign-in with provider.
// codeChallenge is the S256 PKCE challenge; the matching verifier is later
// passed to ExchangeCode.
func (c *Client) AuthorizeURL(provider, redirectTo, codeChallenge string) string {
	q := url.Values{}
	q.Set("provider", provider)
	q.Set("redirect_to", redirectTo)
	q.Set("code_challenge", codeChallenge)
	q.Set("code_challenge_method", "s256")
	return c.baseURL + "/auth/v1/authorize?" + q.Encode()
}

// ExchangeCode completes a PKCE OAuth flow.
func (c *Client) ExchangeCode(ctx context.Context, authCode, codeVerifier string) (*Session, error) {
	return c.grant(ctx, "pkce", map[string]string{
		"auth_code":     authCode,
		"code_verifier": codeVerifier,
	})
}

// SignInWithPassword authenticates with email and password.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	return c.grant(ctx, "password", map[string]string{
		"email":    email,
		"password": password,
	})
}

// RefreshSession trades a refresh token for a new session.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	return c.grant(ctx, "refresh_token", map[string]string{
		"refresh_token": refreshToken,
	})
}

func (c *Client) grant(ctx context.Context, grantType string, body map[string]string) (*Session, error) {
	var session Session
	resp, err := c.WithToken("").request(ctx).
		SetQueryParam("grant_type", grantType).
		SetBody(body).
		SetResult(&session).
		Post("/auth/v1/token")
	if err := check(resp, err, "token grant "+grantType); err != nil {
		return nil, err
	}
	return &session, nil
}

// SignUp registers an email/password account. When email confirmation is
// enabled GoTrue returns only the user, and the returned session has an empty
// AccessToken.
func (c *Client) SignUp(ctx context.Context, email, password, redirectTo string) (*Session, error) {
	resp, err := c.WithToken("").request(ctx).
		SetQueryParam("redirect_to", redirectTo).
		SetBody(map[string]string{
			"email":    email,
			"password": password,
		}).
		Post("/auth/v1/signup")
	if err := check(resp, err, "sign up"); err != nil {
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(resp.Body(), &session); err != nil {
		return nil, fmt.Errorf("sign up: failed to decode response: %w", err)
	}
	if session.AccessToken == "" {
		if err := json.Unmarshal(resp.Body(), &session.User); err != nil {
			return nil, fmt.Errorf("sign up: failed to decode user: %w", err)
		}
	}
	return &session, nil
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	resp, err := c.WithToken(accessToken).request(ctx).Post("/auth/v1/logout")
	return check(resp, err, "sign out")
}
