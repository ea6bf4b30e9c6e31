package assets

import "errors"

var (
	// ErrImageTooLarge is returned when an upload exceeds the configured size limit.
	ErrImageTooLarge = errors.New("image exceeds size limit")

	// ErrUnsupportedFormat is returned when an upload is not a recognized image format.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrEmptyImage is returned when an upload carries no data.
	ErrEmptyImage = errors.New("image is empty")

	// ErrUploadFailed is returned when the asset host rejects or fails an upload.
	ErrUploadFailed = errors.New("image upload failed")

	// ErrNoAssetHost is returned when uploads are attempted with no host configured.
	ErrNoAssetHost = errors.New("no asset host configured")
)

// UserMessage returns the text shown to a user for an upload error.
func UserMessage(err error, maxBytes int64) string {
	switch {
	case errors.Is(err, ErrImageTooLarge):
		return "Image must be smaller than " + formatSize(maxBytes)
	case errors.Is(err, ErrUnsupportedFormat):
		return "Image must be a JPEG, PNG, GIF or WebP"
	case errors.Is(err, ErrEmptyImage):
		return "Image file is empty"
	case errors.Is(err, ErrNoAssetHost):
		return "Image uploads are not available right now"
	default:
		return "Failed to upload image. Please try again."
	}
}
