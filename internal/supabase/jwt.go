package supabase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	jwxjwt "github.com/lestrrat-go/jwx/v2/jwt"
)

// ErrInvalidToken is returned when an access token fails verification.
var ErrInvalidToken = errors.New("invalid access token")

// Claims are the access token claims the app relies on.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// UserID returns the authenticated user's id (the sub claim).
func (c *Claims) UserID() string {
	return c.Subject
}

// TokenVerifier verifies Supabase access tokens locally, without a round trip
// to GoTrue. Legacy projects sign with a shared HS256 secret; newer projects
// publish asymmetric keys at /auth/v1/.well-known/jwks.json.
type TokenVerifier struct {
	secret  []byte
	jwks    *jwk.Cache
	jwksURL string
	leeway  time.Duration
}

// NewHS256Verifier verifies tokens signed with the project's JWT secret.
func NewHS256Verifier(secret string) (*TokenVerifier, error) {
	if secret == "" {
		return nil, errors.New("JWT secret is required")
	}
	return &TokenVerifier{secret: []byte(secret), leeway: 30 * time.Second}, nil
}

// NewJWKSVerifier verifies tokens against the project's published JWKS.
// Keys are fetched once up front and refreshed in the background.
func NewJWKSVerifier(ctx context.Context, projectURL string) (*TokenVerifier, error) {
	jwksURL := strings.TrimRight(projectURL, "/") + "/auth/v1/.well-known/jwks.json"

	cache := jwk.NewCache(ctx)
	if err := cache.Register(jwksURL, jwk.WithMinRefreshInterval(15*time.Minute)); err != nil {
		return nil, fmt.Errorf("failed to register JWKS: %w", err)
	}
	if _, err := cache.Refresh(ctx, jwksURL); err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS from %s: %w", jwksURL, err)
	}

	return &TokenVerifier{jwks: cache, jwksURL: jwksURL, leeway: 30 * time.Second}, nil
}

// Verify checks the token signature and expiry and returns its claims.
func (v *TokenVerifier) Verify(ctx context.Context, token string) (*Claims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return nil, ErrInvalidToken
	}
	if v.jwks != nil {
		return v.verifyJWKS(ctx, token)
	}
	return v.verifyHS256(token)
}

func (v *TokenVerifier) verifyHS256(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}
	return claims, nil
}

func (v *TokenVerifier) verifyJWKS(ctx context.Context, token string) (*Claims, error) {
	set, err := v.jwks.Get(ctx, v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load JWKS: %w", err)
	}

	parsed, err := jwxjwt.Parse([]byte(token),
		jwxjwt.WithKeySet(set, jws.WithInferAlgorithmFromKey(true)),
		jwxjwt.WithValidate(true),
		jwxjwt.WithAcceptableSkew(v.leeway),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if parsed.Subject() == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   parsed.Subject(),
			Issuer:    parsed.Issuer(),
			ExpiresAt: jwt.NewNumericDate(parsed.Expiration()),
			IssuedAt:  jwt.NewNumericDate(parsed.IssuedAt()),
		},
	}
	if email, ok := parsed.Get("email"); ok {
		claims.Email, _ = email.(string)
	}
	if role, ok := parsed.Get("role"); ok {
		claims.Role, _ = role.(string)
	}
	return claims, nil
}
