// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"Sparkle/internal/core/assets"
)

// Backend selects where posts, likes and users are stored
type Backend string

const (
	BackendSupabase Backend = "supabase"
	BackendPostgres Backend = "postgres"
)

// AssetHost selects where uploaded images go
type AssetHost string

const (
	AssetHostCloudinary AssetHost = "cloudinary"
	AssetHostS3         AssetHost = "s3"
	AssetHostNone       AssetHost = "none"
)

// MinSessionSecretLength is the shortest accepted cookie signing secret
const MinSessionSecretLength = 32

// Config validation errors
var (
	// ErrUnknownBackend is returned for a BACKEND other than supabase or postgres
	ErrUnknownBackend = errors.New("BACKEND must be supabase or postgres")
	// ErrMissingSupabase is returned when the Supabase URL or anon key is missing
	ErrMissingSupabase = errors.New("SUPABASE_URL and SUPABASE_ANON_KEY are required")
	// ErrMissingDatabaseURL is returned when the postgres backend has no DATABASE_URL
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required for the postgres backend")
	// ErrMissingTokenVerification is returned when neither a JWT secret nor JWKS is configured
	ErrMissingTokenVerification = errors.New("SUPABASE_JWT_SECRET is required unless SUPABASE_JWKS is enabled")
	// ErrWeakSessionSecret is returned when SESSION_SECRET is shorter than MinSessionSecretLength
	ErrWeakSessionSecret = errors.New("SESSION_SECRET must be at least 32 characters")
	// ErrUnknownAssetHost is returned for an ASSET_HOST other than cloudinary, s3 or none
	ErrUnknownAssetHost = errors.New("ASSET_HOST must be cloudinary, s3 or none")
	// ErrMissingAssetHostConfig is returned when the chosen asset host lacks its settings
	ErrMissingAssetHostConfig = errors.New("asset host settings are incomplete")
	// ErrInvalidImageLimits is returned when the image size or dimension limit is not positive
	ErrInvalidImageLimits = errors.New("IMAGE_MAX_BYTES and IMAGE_MAX_DIMENSION must be positive")
	// ErrInvalidRateLimit is returned when the rate limit is not positive
	ErrInvalidRateLimit = errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
)

// Config holds the server configuration.
type Config struct {
	Port      string
	PublicURL string
	LogLevel  slog.Level

	Backend Backend

	SupabaseURL       string
	SupabaseAnonKey   string
	SupabaseJWTSecret string
	// SupabaseJWKS verifies tokens against the project's published signing keys
	// instead of the shared secret.
	SupabaseJWKS bool

	DatabaseURL   string
	DBAutoMigrate bool

	SessionSecret string

	AssetHost              AssetHost
	CloudinaryCloudName    string
	CloudinaryUploadPreset string
	S3Bucket               string
	S3Region               string
	S3Endpoint             string
	S3PublicURL            string

	ImageMaxBytes     int64
	ImageMaxDimension int

	// LikesAuthoritativeCount re-reads the like count after a toggle instead of
	// adjusting the displayed count locally.
	LikesAuthoritativeCount bool

	UnfurlEnabled bool
	UnfurlTimeout time.Duration

	RateLimitRPS   float64
	RateLimitBurst int

	CORSAllowedOrigins []string
}

// DefaultConfig returns a Config with local development defaults.
func DefaultConfig() Config {
	return Config{
		Port:               "8080",
		PublicURL:          "http://localhost:8080",
		LogLevel:           slog.LevelInfo,
		Backend:            BackendSupabase,
		AssetHost:          AssetHostNone,
		DBAutoMigrate:      true,
		ImageMaxBytes:      assets.DefaultMaxBytes,
		ImageMaxDimension:  assets.DefaultMaxDimension,
		UnfurlEnabled:      true,
		UnfurlTimeout:      10 * time.Second,
		RateLimitRPS:       10,
		RateLimitBurst:     30,
		CORSAllowedOrigins: []string{"*"},
	}
}

// FromEnv creates a Config from environment variables, using defaults for
// anything unset. Malformed numeric or boolean values are logged and ignored.
func FromEnv() Config {
	cfg := DefaultConfig()

	setString(&cfg.Port, "PORT")
	setString(&cfg.PublicURL, "PUBLIC_URL")
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			warnInvalid("LOG_LEVEL", v, cfg.LogLevel.String(), err)
		}
	}

	if v := os.Getenv("BACKEND"); v != "" {
		cfg.Backend = Backend(strings.ToLower(v))
	}
	setString(&cfg.SupabaseURL, "SUPABASE_URL")
	setString(&cfg.SupabaseAnonKey, "SUPABASE_ANON_KEY")
	setString(&cfg.SupabaseJWTSecret, "SUPABASE_JWT_SECRET")
	setBool(&cfg.SupabaseJWKS, "SUPABASE_JWKS")

	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setBool(&cfg.DBAutoMigrate, "DB_AUTO_MIGRATE")

	setString(&cfg.SessionSecret, "SESSION_SECRET")

	if v := os.Getenv("ASSET_HOST"); v != "" {
		cfg.AssetHost = AssetHost(strings.ToLower(v))
	}
	setString(&cfg.CloudinaryCloudName, "CLOUDINARY_CLOUD_NAME")
	setString(&cfg.CloudinaryUploadPreset, "CLOUDINARY_UPLOAD_PRESET")
	setString(&cfg.S3Bucket, "S3_BUCKET")
	setString(&cfg.S3Region, "S3_REGION")
	setString(&cfg.S3Endpoint, "S3_ENDPOINT")
	setString(&cfg.S3PublicURL, "S3_PUBLIC_URL")

	if v := os.Getenv("IMAGE_MAX_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.ImageMaxBytes = n
		} else {
			warnInvalid("IMAGE_MAX_BYTES", v, cfg.ImageMaxBytes, err)
		}
	}
	setPositiveInt(&cfg.ImageMaxDimension, "IMAGE_MAX_DIMENSION")

	setBool(&cfg.LikesAuthoritativeCount, "LIKES_AUTHORITATIVE_COUNT")
	setBool(&cfg.UnfurlEnabled, "UNFURL_ENABLED")

	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.RateLimitRPS = n
		} else {
			warnInvalid("RATE_LIMIT_RPS", v, cfg.RateLimitRPS, err)
		}
	}
	setPositiveInt(&cfg.RateLimitBurst, "RATE_LIMIT_BURST")

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORSAllowedOrigins = origins
	}

	return cfg
}

// Validate checks the configuration for missing or invalid values.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendSupabase, BackendPostgres:
	default:
		return fmt.Errorf("%w: got %q", ErrUnknownBackend, c.Backend)
	}

	// Auth always goes through Supabase, whichever backend stores the rows.
	if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
		return ErrMissingSupabase
	}
	if c.SupabaseJWTSecret == "" && !c.SupabaseJWKS {
		return ErrMissingTokenVerification
	}
	if c.Backend == BackendPostgres && c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}

	if len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("%w: got %d", ErrWeakSessionSecret, len(c.SessionSecret))
	}

	switch c.AssetHost {
	case AssetHostNone:
	case AssetHostCloudinary:
		if c.CloudinaryCloudName == "" || c.CloudinaryUploadPreset == "" {
			return fmt.Errorf("%w: CLOUDINARY_CLOUD_NAME and CLOUDINARY_UPLOAD_PRESET are required", ErrMissingAssetHostConfig)
		}
	case AssetHostS3:
		if c.S3Bucket == "" || c.S3Region == "" {
			return fmt.Errorf("%w: S3_BUCKET and S3_REGION are required", ErrMissingAssetHostConfig)
		}
	default:
		return fmt.Errorf("%w: got %q", ErrUnknownAssetHost, c.AssetHost)
	}

	if c.ImageMaxBytes <= 0 || c.ImageMaxDimension <= 0 {
		return ErrInvalidImageLimits
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return ErrInvalidRateLimit
	}
	return nil
}

// PostURL returns the canonical public URL of a post
func (c Config) PostURL(postID string) string {
	return c.PublicURL + "/post/" + postID
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		warnInvalid(key, v, *dst, err)
		return
	}
	*dst = b
}

func setPositiveInt(dst *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		warnInvalid(key, v, *dst, err)
		return
	}
	*dst = n
}

func warnInvalid(key, value string, def any, err error) {
	slog.Warn("[CONFIG] invalid value, using default",
		"key", key,
		"value", value,
		"default", def,
		"error", err,
	)
}
