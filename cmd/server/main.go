package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"Sparkle/internal/api/handlers/post"
	"Sparkle/internal/api/middleware"
	"Sparkle/internal/api/routes"
	"Sparkle/internal/config"
	"Sparkle/internal/core/feed"
	"Sparkle/internal/core/likes"
	"Sparkle/internal/core/posts"
	"Sparkle/internal/core/unfurl"
	"Sparkle/internal/core/users"
	"Sparkle/internal/realtime"
	"Sparkle/internal/session"
	"Sparkle/internal/supabase"
	"Sparkle/internal/web"
)

// likeCacheTTL bounds how long a viewer's liked set is reused
const likeCacheTTL = 10 * time.Minute

func main() {
	// A missing .env is normal in production
	_ = godotenv.Load()

	cfg := config.FromEnv()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := supabase.New(supabase.Config{URL: cfg.SupabaseURL, AnonKey: cfg.SupabaseAnonKey})
	if err != nil {
		return fmt.Errorf("failed to create supabase client: %w", err)
	}

	var verifier *supabase.TokenVerifier
	if cfg.SupabaseJWKS {
		verifier, err = supabase.NewJWKSVerifier(ctx, cfg.SupabaseURL)
	} else {
		verifier, err = supabase.NewHS256Verifier(cfg.SupabaseJWTSecret)
	}
	if err != nil {
		return fmt.Errorf("failed to create token verifier: %w", err)
	}

	store, err := openBackend(cfg, client, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	images, err := newImageService(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var postOpts []posts.ServiceOption
	if cfg.UnfurlEnabled {
		previewer := unfurl.NewService(
			unfurl.WithTimeout(cfg.UnfurlTimeout),
			unfurl.WithLogger(logger),
		)
		postOpts = append(postOpts, posts.WithLinkPreviewer(previewer))
	}
	postService := posts.NewService(store.posts, logger, postOpts...)
	likeService := likes.NewService(store.likes, logger,
		likes.WithAuthoritativeCount(cfg.LikesAuthoritativeCount),
		likes.WithCache(likes.NewLikeCache(likeCacheTTL, logger)),
	)
	userService := users.NewUserService(store.users, logger)

	hub := realtime.NewHub(logger)
	go func() {
		if err := hub.Run(ctx, store.changes); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("realtime source stopped", "error", err)
		}
	}()

	templates, err := web.NewTemplates()
	if err != nil {
		return err
	}
	sessions, err := session.NewStore(cfg.SessionSecret, isHTTPS(cfg.PublicURL))
	if err != nil {
		return fmt.Errorf("failed to create session store: %w", err)
	}

	cards := feed.NewCardLoader(likeService, userService, cfg.PostURL, logger)
	webHandlers := web.NewHandlers(web.Deps{
		Templates:     templates,
		Posts:         postService,
		Likes:         likeService,
		Submitter:     posts.NewSubmitter(postService, images, logger),
		Cards:         cards,
		Liked:         feed.NewLikedList(postService, likeService, logger),
		Changes:       hub,
		Sessions:      sessions,
		Auth:          client,
		Users:         userService,
		Logger:        logger,
		PublicURL:     cfg.PublicURL,
		MaxImageBytes: cfg.ImageMaxBytes,
	})

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(middleware.Recoverer(logger, http.HandlerFunc(webHandlers.ErrorPanelHandler)))

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	r.Use(rateLimiter.Middleware)

	resolver := session.NewResolver(sessions, verifier, client, logger)
	r.Use(resolver.Middleware)

	routes.RegisterWebRoutes(r, webHandlers)
	authLimiter := routes.RegisterAuthRoutes(r, webHandlers)
	routes.RegisterAPIRoutes(r,
		post.NewReadHandler(postService, cards, logger),
		post.NewWriteHandler(postService, logger),
		cfg.CORSAllowedOrigins,
	)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := store.ping(r.Context()); err != nil {
			http.Error(w, "backend unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	cleanupStop := make(chan struct{})
	defer close(cleanupStop)
	go rateLimiter.Cleanup(5*time.Minute, cleanupStop)
	go authLimiter.Cleanup(5*time.Minute, cleanupStop)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("sparkle starting",
			"port", cfg.Port,
			"public_url", cfg.PublicURL,
			"backend", cfg.Backend,
			"asset_host", cfg.AssetHost,
		)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	// Open feed streams never finish on their own; give them a bounded window.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func isHTTPS(publicURL string) bool {
	return strings.HasPrefix(publicURL, "https://")
}
