package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"Sparkle/internal/session"
	"Sparkle/internal/web"
)

// RegisterWebRoutes registers the server-rendered pages on the router.
// Posting actions require a signed-in user; anonymous visitors are sent to
// the login page with an explanatory message.
func RegisterWebRoutes(r chi.Router, h *web.Handlers) {
	r.Get("/", h.FeedHandler)
	r.Get("/feed/stream", h.StreamHandler)
	r.Get("/liked", h.LikedHandler)

	r.Get("/post/{id}", h.PostHandler)
	r.Get("/post/{id}/share", h.ShareHandler)
	r.Post("/post/{id}/like", h.LikeHandler)

	// The submit handler answers anonymous posts itself so the message names
	// the action.
	r.Post("/posts/new", h.SubmitPostHandler)

	r.Group(func(r chi.Router) {
		r.Use(session.RequireUser)
		r.Get("/posts/new", h.NewPostFormHandler)
		r.Get("/post/{id}/delete", h.DeleteConfirmHandler)
		r.Post("/post/{id}/delete", h.DeleteHandler)
	})

	// Unknown pages fall back to the feed.
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/", http.StatusSeeOther)
	})
}
