package post

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"Sparkle/internal/api/handlers"
	"Sparkle/internal/core/posts"
	"Sparkle/internal/session"
)

// maxCreateBody bounds POST /api/posts bodies
const maxCreateBody = 1 << 20

// WriteHandler serves post creation and deletion for API clients
type WriteHandler struct {
	service posts.Service
	logger  *slog.Logger
}

// NewWriteHandler creates a new write handler
func NewWriteHandler(service posts.Service, logger *slog.Logger) *WriteHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WriteHandler{service: service, logger: logger}
}

// HandleCreate handles POST /api/posts
//
// Request body: {"title": "...", "content": "...", "image_url": "...", "external_url": "..."}
// Response: the created post
func (h *WriteHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	viewerID := session.ViewerID(r.Context())
	if viewerID == "" {
		handlers.WriteError(w, http.StatusUnauthorized, "AuthRequired", "Authentication required")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCreateBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handlers.WriteError(w, http.StatusRequestEntityTooLarge, "RequestTooLarge",
				"Request body too large (max 1MB)")
			return
		}
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}

	if err := validateCreateBody(body); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return
	}

	var req posts.CreatePostRequest
	if err := json.Unmarshal(body, &req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}

	created, err := h.service.CreatePost(r.Context(), viewerID, req)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	handlers.WriteJSON(w, http.StatusCreated, created)
}

// HandleDelete handles DELETE /api/posts/{id}. The DELETE verb is the
// confirmation; only the author may delete.
func (h *WriteHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	viewerID := session.ViewerID(r.Context())
	if viewerID == "" {
		handlers.WriteError(w, http.StatusUnauthorized, "AuthRequired", "Authentication required")
		return
	}

	if err := h.service.DeletePost(r.Context(), viewerID, chi.URLParam(r, "id"), true); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
