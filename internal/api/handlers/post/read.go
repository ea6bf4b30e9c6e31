package post

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"Sparkle/internal/api/handlers"
	"Sparkle/internal/core/feed"
	"Sparkle/internal/core/posts"
	"Sparkle/internal/session"
)

// ReadHandler serves the read side of the posts API
type ReadHandler struct {
	service posts.Service
	cards   *feed.CardLoader
	logger  *slog.Logger
}

// NewReadHandler creates a new read handler
func NewReadHandler(service posts.Service, cards *feed.CardLoader, logger *slog.Logger) *ReadHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReadHandler{service: service, cards: cards, logger: logger}
}

// ListResponse is the body of GET /api/posts
type ListResponse struct {
	Posts []PostView `json:"posts"`
}

// HandleList handles GET /api/posts and returns every post, newest first,
// with author, like count and the caller's like state.
func (h *ReadHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListPosts(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	resp := ListResponse{Posts: make([]PostView, 0, len(list))}
	for _, card := range h.cards.Cards(r.Context(), session.ViewerID(r.Context()), list) {
		resp.Posts = append(resp.Posts, viewOf(card))
	}
	handlers.WriteJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /api/posts/{id}
func (h *ReadHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.GetPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	card := h.cards.Load(r.Context(), session.ViewerID(r.Context()), post)
	handlers.WriteJSON(w, http.StatusOK, viewOf(card))
}
