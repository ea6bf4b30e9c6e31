package post

import (
	"errors"
	"log/slog"
	"net/http"

	"Sparkle/internal/api/handlers"
	"Sparkle/internal/core/posts"
)

// handleServiceError maps service errors to HTTP responses
func handleServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var valErr *posts.ValidationError
	switch {
	case errors.As(err, &valErr):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", valErr.Message)

	case errors.Is(err, posts.ErrNotFound):
		handlers.WriteError(w, http.StatusNotFound, "NotFound", "Post not found")

	case errors.Is(err, posts.ErrUnauthenticated):
		handlers.WriteError(w, http.StatusUnauthorized, "AuthRequired", "Authentication required")

	case errors.Is(err, posts.ErrNotAuthor):
		handlers.WriteError(w, http.StatusForbidden, "NotAuthorized", "Only the author can delete this post")

	case posts.BackendCode(err) != "":
		// Constraint violations are the caller's problem and carry a readable sentence.
		handlers.WriteError(w, http.StatusConflict, "ConstraintViolation", posts.MapBackendError(err))

	default:
		// Don't leak internal error details to clients
		logger.Error("unexpected error in post handler", "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError",
			"An internal error occurred")
	}
}
