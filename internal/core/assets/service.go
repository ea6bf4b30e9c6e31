package assets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Service validates and stores post images.
type Service interface {
	// Validate checks the declared size and type without reading the file.
	Validate(file *ImageFile) error

	// Upload validates the actual bytes, downsizes oversized images and
	// stores the result, returning the public URL.
	Upload(ctx context.Context, file *ImageFile) (string, error)

	// MaxBytes returns the configured upload limit.
	MaxBytes() int64
}

type service struct {
	uploader  Uploader
	processor *Processor
	logger    *slog.Logger
	maxBytes  int64
}

// ServiceOption configures the asset service.
type ServiceOption func(*service)

// WithMaxBytes overrides DefaultMaxBytes.
func WithMaxBytes(n int64) ServiceOption {
	return func(s *service) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// WithMaxDimension overrides DefaultMaxDimension.
func WithMaxDimension(px int) ServiceOption {
	return func(s *service) {
		s.processor = NewProcessor(px)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates an asset service. A nil uploader disables uploads
// (Upload returns ErrNoAssetHost) while keeping validation.
func NewService(uploader Uploader, opts ...ServiceOption) Service {
	s := &service{
		uploader:  uploader,
		processor: NewProcessor(DefaultMaxDimension),
		logger:    slog.Default(),
		maxBytes:  DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) MaxBytes() int64 {
	return s.maxBytes
}

func (s *service) Validate(file *ImageFile) error {
	return ValidateDeclared(file, s.maxBytes)
}

func (s *service) Upload(ctx context.Context, file *ImageFile) (string, error) {
	if err := s.Validate(file); err != nil {
		return "", err
	}
	if s.uploader == nil {
		return "", ErrNoAssetHost
	}
	if file.Reader == nil {
		return "", ErrEmptyImage
	}

	// Read one byte past the limit so a lying Size header is still caught.
	data, err := io.ReadAll(io.LimitReader(file.Reader, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("%w: more than %d bytes", ErrImageTooLarge, s.maxBytes)
	}
	if len(data) == 0 {
		return "", ErrEmptyImage
	}

	mimeType := sniffMimeType(data)
	if !isValidMimeType(mimeType) {
		return "", fmt.Errorf("%w: detected %s", ErrUnsupportedFormat, mimeType)
	}

	processed, mimeType, err := s.processor.Process(data, mimeType)
	if err != nil {
		return "", err
	}

	url, err := s.uploader.Upload(ctx, file.Filename, mimeType, processed)
	if err != nil {
		s.logger.Error("image upload failed", "filename", file.Filename, "size", len(processed), "error", err)
		return "", err
	}

	s.logger.Info("image uploaded", "filename", file.Filename, "size", len(processed), "mime_type", mimeType)
	return url, nil
}
