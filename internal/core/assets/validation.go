package assets

import (
	"fmt"
	"net/http"
	"strings"
)

// normalizeMimeType lowercases, strips parameters and maps aliases.
func normalizeMimeType(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	switch mimeType {
	case "image/jpg", "image/pjpeg":
		return "image/jpeg"
	case "image/x-png":
		return "image/png"
	}
	return mimeType
}

// isValidMimeType reports whether mimeType is an accepted image format.
func isValidMimeType(mimeType string) bool {
	return allowedMimeTypes[normalizeMimeType(mimeType)]
}

// ValidateDeclared checks the client-declared size and type before any bytes
// are read. A file failing here is never sent to the asset host.
func ValidateDeclared(file *ImageFile, maxBytes int64) error {
	if file == nil {
		return ErrEmptyImage
	}
	if file.Size > maxBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrImageTooLarge, file.Size, maxBytes)
	}
	if file.ContentType != "" && !isValidMimeType(file.ContentType) {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, file.ContentType)
	}
	return nil
}

// sniffMimeType detects the real format from the data.
func sniffMimeType(data []byte) string {
	return normalizeMimeType(http.DetectContentType(data))
}
