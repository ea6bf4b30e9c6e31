package posts

import (
	"errors"
	"fmt"

	"Sparkle/internal/supabase"
)

// Sentinel errors for common post operations
var (
	// ErrNotFound is returned when a post is not found by ID
	ErrNotFound = errors.New("post not found")

	// ErrUnauthenticated is returned when a write is attempted without a signed-in user
	ErrUnauthenticated = errors.New("authentication required")

	// ErrNotAuthor is returned when someone other than the author tries to delete a post
	ErrNotAuthor = errors.New("only the author can delete this post")

	// ErrNotConfirmed is returned when a delete arrives without explicit confirmation
	ErrNotConfirmed = errors.New("post deletion was not confirmed")

	// ErrSubmissionInProgress is returned when a user submits while a previous
	// submission of theirs is still uploading or inserting
	ErrSubmissionInProgress = errors.New("a submission is already in progress")

	// ErrUploadFailed is returned when the image upload step of a submission fails
	ErrUploadFailed = errors.New("image upload failed")
)

// User-facing messages for the submission flow.
const (
	MsgLoginRequired   = "You must be logged in to upload a post"
	MsgTitleRequired   = "Title is required"
	MsgGenericFailure  = "Failed to upload post. Please try again."
	MsgDuplicate       = "This post already exists"
	MsgMissingField    = "A required field is missing"
	MsgTableMissing    = "Posts are unavailable right now (table missing)"
	MsgDeleteFailed    = "Error deleting post"
	MsgDeleteSucceeded = "Post deleted"
)

// backendMessages maps Postgres SQLSTATE codes surfaced by the backend to text.
var backendMessages = map[string]string{
	"23505": MsgDuplicate,
	"23502": MsgMissingField,
	"42P01": MsgTableMissing,
}

// MapBackendError converts a backend constraint error into a user-facing
// sentence. Unknown codes fall back to the raw backend message.
func MapBackendError(err error) string {
	if err == nil {
		return ""
	}
	if msg, ok := backendMessages[BackendCode(err)]; ok {
		return msg
	}
	return supabase.ErrorMessage(err)
}

// BackendCode returns the SQLSTATE-style code carried by err, or "".
func BackendCode(err error) string {
	var coded interface{ SQLState() string }
	if errors.As(err, &coded) {
		return coded.SQLState()
	}
	return ""
}

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error (%s): %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidationError checks if error is a validation error
func IsValidationError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// UserMessage returns the sentence to show for a submission or delete error.
func UserMessage(err error) string {
	var valErr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &valErr):
		return valErr.Message
	case errors.Is(err, ErrUnauthenticated):
		return MsgLoginRequired
	case errors.Is(err, ErrUploadFailed):
		return "Failed to upload image. Please try again."
	case errors.Is(err, ErrSubmissionInProgress):
		return "Your post is still being submitted"
	case BackendCode(err) != "":
		return MapBackendError(err)
	default:
		return MsgGenericFailure
	}
}
