package session

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"Sparkle/internal/supabase"
)

// refreshLeeway refreshes access tokens that are about to expire
const refreshLeeway = time.Minute

// TokenVerifier validates access tokens
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*supabase.Claims, error)
}

// Refresher exchanges a refresh token for a new session
type Refresher interface {
	RefreshSession(ctx context.Context, refreshToken string) (*supabase.Session, error)
}

// Resolver turns request credentials into a Viewer
type Resolver struct {
	store     *Store
	verifier  TokenVerifier
	refresher Refresher
	logger    *slog.Logger
}

// NewResolver creates a viewer resolver
func NewResolver(store *Store, verifier TokenVerifier, refresher Refresher, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, verifier: verifier, refresher: refresher, logger: logger}
}

// Middleware resolves the viewer from a Bearer token or the session cookie,
// refreshing an expired cookie session once. The viewer and access token are
// stored in the request context; unresolvable credentials leave the request
// anonymous.
func (res *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer := res.resolve(w, r)
		if viewer != nil {
			ctx := WithViewer(r.Context(), viewer)
			ctx = supabase.WithAccessToken(ctx, viewer.AccessToken)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

func (res *Resolver) resolve(w http.ResponseWriter, r *http.Request) *Viewer {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		viewer, err := res.verify(r.Context(), token)
		if err != nil {
			res.logger.Debug("bearer token rejected", "path", r.URL.Path, "error", err)
			return nil
		}
		return viewer
	}

	tokens, ok := res.store.Tokens(r)
	if !ok {
		return nil
	}

	fresh := tokens.ExpiresAt.IsZero() || time.Until(tokens.ExpiresAt) > refreshLeeway
	if tokens.AccessToken != "" && fresh {
		if viewer, err := res.verify(r.Context(), tokens.AccessToken); err == nil {
			return viewer
		}
	}

	if tokens.RefreshToken == "" || res.refresher == nil {
		return nil
	}
	refreshed, err := res.refresher.RefreshSession(r.Context(), tokens.RefreshToken)
	if err != nil {
		res.logger.Info("session refresh failed, signing out", "error", err)
		_ = res.store.Clear(w, r)
		return nil
	}
	if err := res.store.Save(w, r, refreshed); err != nil {
		res.logger.Warn("failed to persist refreshed session", "error", err)
	}

	viewer, err := res.verify(r.Context(), refreshed.AccessToken)
	if err != nil {
		res.logger.Warn("refreshed token rejected", "error", err)
		return nil
	}
	return viewer
}

func (res *Resolver) verify(ctx context.Context, token string) (*Viewer, error) {
	claims, err := res.verifier.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	return &Viewer{
		UserID:      claims.UserID(),
		Email:       claims.Email,
		AccessToken: token,
	}, nil
}
