// Package assets validates, normalizes and stores user uploaded images on an
// external asset host, returning the URL the post record references.
package assets

import (
	"context"
	"fmt"
	"io"
)

// DefaultMaxBytes is the largest upload accepted (10 MB).
const DefaultMaxBytes int64 = 10 * 1024 * 1024

// DefaultMaxDimension is the longest edge kept before images are downscaled.
const DefaultMaxDimension = 2048

// ImageFile is an uploaded image as received from a form.
// Size and ContentType are what the client declared; the service re-checks
// both against the actual bytes.
type ImageFile struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Uploader stores image bytes on an asset host and returns a public URL.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

// allowedMimeTypes are the formats accepted for post images.
var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

func formatSize(n int64) string {
	const mb = 1024 * 1024
	if n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%.1fMB", float64(n)/mb)
}
