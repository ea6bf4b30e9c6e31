// Package supabase is a small client for the parts of Supabase the app relies on:
// PostgREST table access, GoTrue authentication and Realtime change feeds.
//
// A Client is safe for concurrent use. WithToken returns a copy that sends a
// user's access token so row level security policies apply to that user.
package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds every REST call made by the client.
const DefaultTimeout = 15 * time.Second

// Config holds the project settings needed to reach a Supabase instance.
type Config struct {
	URL     string // Project URL, e.g. https://xyz.supabase.co
	AnonKey string // Public anon key, sent as the apikey header
	Timeout time.Duration
}

// Client talks to a Supabase project over HTTP.
type Client struct {
	rest    *resty.Client
	baseURL string
	anonKey string
	token   string
}

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("supabase URL is required")
	}
	if cfg.AnonKey == "" {
		return nil, errors.New("supabase anon key is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid supabase URL %q", cfg.URL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	baseURL := strings.TrimRight(cfg.URL, "/")
	rest := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("apikey", cfg.AnonKey)

	return &Client{
		rest:    rest,
		baseURL: baseURL,
		anonKey: cfg.AnonKey,
	}, nil
}

// WithToken returns a client that authenticates as the user owning accessToken.
// An empty token yields a client acting as the anonymous role.
func (c *Client) WithToken(accessToken string) *Client {
	cp := *c
	cp.token = accessToken
	return &cp
}

// BaseURL returns the project URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type accessTokenKey struct{}

// WithAccessToken returns a context carrying a user's access token. Requests
// made with that context act as the user unless the client has its own token.
func WithAccessToken(ctx context.Context, accessToken string) context.Context {
	return context.WithValue(ctx, accessTokenKey{}, accessToken)
}

// AccessTokenFrom returns the access token stored by WithAccessToken, or "".
func AccessTokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(accessTokenKey{}).(string)
	return token
}

// request starts a request bound to ctx. It is authorized with the client's
// token, then the context's access token, then the anon key.
func (c *Client) request(ctx context.Context) *resty.Request {
	token := c.token
	if token == "" {
		token = AccessTokenFrom(ctx)
	}
	if token == "" {
		token = c.anonKey
	}
	return c.rest.R().SetContext(ctx).SetAuthToken(token)
}

// check converts a resty response into an error when it carries a non-2xx status.
func check(resp *resty.Response, err error, operation string) error {
	if err != nil {
		return fmt.Errorf("%s failed: %w", operation, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%s: %w", operation, parseAPIError(resp.StatusCode(), resp.Body()))
	}
	return nil
}
