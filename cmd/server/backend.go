package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"Sparkle/internal/config"
	"Sparkle/internal/core/assets"
	"Sparkle/internal/core/likes"
	"Sparkle/internal/core/posts"
	"Sparkle/internal/core/users"
	"Sparkle/internal/db/migrations"
	"Sparkle/internal/db/postgres"
	"Sparkle/internal/db/postgrest"
	"Sparkle/internal/realtime"
	"Sparkle/internal/supabase"
)

// backend bundles the repositories and change source for one storage choice
type backend struct {
	posts   posts.Repository
	likes   likes.Repository
	users   users.UserRepository
	changes realtime.Source
	db      *sql.DB
}

func openBackend(cfg config.Config, client *supabase.Client, logger *slog.Logger) (*backend, error) {
	if cfg.Backend != config.BackendPostgres {
		return &backend{
			posts:   postgrest.NewPostRepository(client),
			likes:   postgrest.NewLikeRepository(client),
			users:   postgrest.NewUserRepository(client),
			changes: realtime.NewSupabaseSource(client.Realtime("public", "posts", logger)),
		}, nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("connected to database")

	if cfg.DBAutoMigrate {
		if err := migrations.Up(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("migrations completed")
	}

	return &backend{
		posts:   postgres.NewPostRepository(db),
		likes:   postgres.NewLikeRepository(db),
		users:   postgres.NewUserRepository(db),
		changes: realtime.NewPQSource(cfg.DatabaseURL, realtime.PostsChannel, logger),
		db:      db,
	}, nil
}

func (b *backend) ping(ctx context.Context) error {
	if b.db == nil {
		return nil
	}
	return b.db.PingContext(ctx)
}

func (b *backend) Close() {
	if b.db != nil {
		_ = b.db.Close()
	}
}

func newImageService(ctx context.Context, cfg config.Config, logger *slog.Logger) (assets.Service, error) {
	opts := []assets.ServiceOption{
		assets.WithMaxBytes(cfg.ImageMaxBytes),
		assets.WithMaxDimension(cfg.ImageMaxDimension),
		assets.WithLogger(logger),
	}

	switch cfg.AssetHost {
	case config.AssetHostCloudinary:
		uploader, err := assets.NewCloudinaryUploader("", cfg.CloudinaryCloudName, cfg.CloudinaryUploadPreset)
		if err != nil {
			return nil, fmt.Errorf("failed to create cloudinary uploader: %w", err)
		}
		return assets.NewService(uploader, opts...), nil
	case config.AssetHostS3:
		uploader, err := assets.NewS3Uploader(ctx, assets.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 uploader: %w", err)
		}
		return assets.NewService(uploader, opts...), nil
	default:
		// Uploads are refused with a readable message; URL images still work.
		return assets.NewService(nil, opts...), nil
	}
}
