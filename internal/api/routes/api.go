package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"Sparkle/internal/api/handlers/post"
)

// RegisterAPIRoutes registers the JSON posts API for scripted clients.
// Callers authenticate with a bearer token resolved by the session middleware.
func RegisterAPIRoutes(r chi.Router, read *post.ReadHandler, write *post.WriteHandler, allowedOrigins []string) {
	r.Route("/api/posts", func(r chi.Router) {
		r.Use(corsMiddleware(allowedOrigins))
		r.Get("/", read.HandleList)
		r.Post("/", write.HandleCreate)
		r.Get("/{id}", read.HandleGet)
		r.Delete("/{id}", write.HandleDelete)
	})
}

// corsMiddleware allows the configured origins to call the API with a bearer token
func corsMiddleware(allowedOrigins []string) func(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
		},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	})
}
