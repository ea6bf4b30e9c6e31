package unfurl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

const maxPageBytes = 2 * 1024 * 1024

// Service fetches link previews with caching and per-domain circuit breaking
type Service interface {
	// Preview returns the metadata for link
	Preview(ctx context.Context, link string) (*Preview, error)

	// PreviewImage returns the preview image for link, if any. Failures are
	// logged and reported as ok=false.
	PreviewImage(ctx context.Context, link string) (imageURL string, ok bool)
}

type cachedPreview struct {
	preview   *Preview
	expiresAt time.Time
}

type service struct {
	rest              *resty.Client
	cache             *lru.Cache[string, cachedPreview]
	circuitBreaker    *circuitBreaker
	logger            *slog.Logger
	cacheTTL          time.Duration
	allowPrivateHosts bool
}

// ServiceOption configures the service
type ServiceOption func(*service)

// WithTimeout sets the HTTP timeout for page fetches
func WithTimeout(timeout time.Duration) ServiceOption {
	return func(s *service) {
		s.rest.SetTimeout(timeout)
	}
}

// WithUserAgent sets the User-Agent header for page fetches
func WithUserAgent(userAgent string) ServiceOption {
	return func(s *service) {
		s.rest.SetHeader("User-Agent", userAgent)
	}
}

// WithCacheTTL sets the cache TTL
func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *service) {
		s.cacheTTL = ttl
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
			s.circuitBreaker.logger = logger
		}
	}
}

// WithAllowPrivateHosts permits fetching loopback and private addresses (tests, local dev)
func WithAllowPrivateHosts(allow bool) ServiceOption {
	return func(s *service) {
		s.allowPrivateHosts = allow
	}
}

// NewService creates a new unfurl service
func NewService(opts ...ServiceOption) Service {
	logger := slog.Default()
	cache, _ := lru.New[string, cachedPreview](512)
	s := &service{
		rest: resty.New().
			SetTimeout(10*time.Second).
			SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)).
			SetHeader("User-Agent", "SparkleBot/1.0 (link preview)").
			SetHeader("Accept", "text/html,application/xhtml+xml"),
		cache:          cache,
		circuitBreaker: newCircuitBreaker(logger),
		logger:         logger,
		cacheTTL:       6 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.allowPrivateHosts {
		s.rest.SetTransport(newGuardedTransport())
		s.rest.SetRedirectPolicy(resty.FlexibleRedirectPolicy(5), resty.RedirectPolicyFunc(checkRedirect))
	}
	return s
}

func (s *service) PreviewImage(ctx context.Context, link string) (string, bool) {
	p, err := s.Preview(ctx, link)
	if err != nil {
		s.logger.Debug("link preview unavailable", "url", link, "error", err)
		return "", false
	}
	return p.ImageURL, p.ImageURL != ""
}

func (s *service) Preview(ctx context.Context, link string) (*Preview, error) {
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, link)
	}
	if !s.allowPrivateHosts && isBlockedHost(u.Hostname()) {
		return nil, fmt.Errorf("%w: %s", ErrBlockedHost, u.Hostname())
	}

	if entry, ok := s.cache.Get(link); ok && time.Now().Before(entry.expiresAt) {
		return entry.preview, nil
	}

	domain := extractDomain(u)
	if err := s.circuitBreaker.canAttempt(domain); err != nil {
		return nil, err
	}

	preview, err := s.fetch(ctx, u)
	if err != nil {
		s.circuitBreaker.recordFailure(domain, err)
		return nil, err
	}
	s.circuitBreaker.recordSuccess(domain)

	s.cache.Add(link, cachedPreview{preview: preview, expiresAt: time.Now().Add(s.cacheTTL)})
	s.logger.Debug("unfurled link", "url", link, "has_image", preview.ImageURL != "")
	return preview, nil
}

func (s *service) fetch(ctx context.Context, u *url.URL) (*Preview, error) {
	resp, err := s.rest.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	body := resp.RawBody()
	defer func() { _ = body.Close() }()

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("HTTP request returned status %d", resp.StatusCode())
	}

	data, err := io.ReadAll(io.LimitReader(body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	og := parseOpenGraph(string(data))

	// Relative tags resolve against the final URL after redirects.
	base := u
	if resp.RawResponse != nil && resp.RawResponse.Request != nil && resp.RawResponse.Request.URL != nil {
		base = resp.RawResponse.Request.URL
	}

	preview := &Preview{
		URL:         u.String(),
		Title:       og.Title,
		Description: og.Description,
		ImageURL:    resolveReference(base, og.Image),
		SiteName:    og.SiteName,
		Domain:      extractDomain(u),
	}
	if canonical := resolveReference(base, og.URL); canonical != "" {
		preview.URL = canonical
	}
	return preview, nil
}
