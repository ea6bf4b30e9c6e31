package session

import (
	"context"
	"net/http"
	"net/url"
)

// LoginRequiredMessage is shown when a protected page redirects to login
const LoginRequiredMessage = "Please log in to access this page"

// Viewer is the signed-in user making the request
type Viewer struct {
	UserID      string
	Email       string
	AccessToken string
}

type viewerKey struct{}

// WithViewer returns a context carrying v
func WithViewer(ctx context.Context, v *Viewer) context.Context {
	return context.WithValue(ctx, viewerKey{}, v)
}

// FromContext returns the viewer, or nil for anonymous requests
func FromContext(ctx context.Context) *Viewer {
	v, _ := ctx.Value(viewerKey{}).(*Viewer)
	return v
}

// ViewerID returns the viewer's user ID, or "" for anonymous requests
func ViewerID(ctx context.Context) string {
	if v := FromContext(ctx); v != nil {
		return v.UserID
	}
	return ""
}

// LoginURL returns the login route carrying message
func LoginURL(message string) string {
	if message == "" {
		return "/login"
	}
	return "/login?message=" + url.QueryEscape(message)
}

// RequireUser redirects anonymous requests to the login page
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()) == nil {
			http.Redirect(w, r, LoginURL(LoginRequiredMessage), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
