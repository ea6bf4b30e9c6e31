package routes

import (
	"github.com/go-chi/chi/v5"

	"Sparkle/internal/api/middleware"
	"Sparkle/internal/web"
)

// Sign in attempts per second and burst, per client IP
const (
	authRPS   = 10.0 / 60.0
	authBurst = 5
)

// RegisterAuthRoutes registers the sign in, sign up and OAuth endpoints.
// Credential endpoints get a stricter limiter than the global one.
func RegisterAuthRoutes(r chi.Router, h *web.Handlers) *middleware.RateLimiter {
	limiter := middleware.NewRateLimiter(authRPS, authBurst)

	r.Get("/login", h.LoginPageHandler)
	r.Get("/signup", h.SignupPageHandler)
	r.With(limiter.Middleware).Post("/login", h.LoginHandler)
	r.With(limiter.Middleware).Post("/signup", h.SignupHandler)

	r.With(limiter.Middleware).Get("/auth/github", h.GitHubLoginHandler)
	r.With(limiter.Middleware).Get("/auth/callback", h.CallbackHandler)

	r.Post("/logout", h.LogoutHandler)

	return limiter
}
