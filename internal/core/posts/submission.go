package posts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"Sparkle/internal/core/assets"
)

// SubmissionState is a step of the post submission flow.
//
//	idle -> validating -> (uploading ->) submitting -> closed | idle (with error)
type SubmissionState string

const (
	StateIdle       SubmissionState = "idle"
	StateValidating SubmissionState = "validating"
	StateUploading  SubmissionState = "uploading"
	StateSubmitting SubmissionState = "submitting"
	StateClosed     SubmissionState = "closed"
)

// Busy reports whether the submit control is disabled in this state.
func (s SubmissionState) Busy() bool {
	return s == StateValidating || s == StateUploading || s == StateSubmitting
}

// SubmissionForm is what the user entered in the new post form.
// An uploaded Image supersedes ImageURL.
type SubmissionForm struct {
	Title       string
	Content     string
	ImageURL    string
	ExternalURL string
	Image       *assets.ImageFile
}

// StateObserver is notified of every transition.
type StateObserver func(userID string, state SubmissionState)

// Submitter runs the submission state machine. At most one submission per
// user is in flight; a second Submit while busy is refused.
type Submitter struct {
	posts    Service
	images   assets.Service
	logger   *slog.Logger
	observer StateObserver

	mu       sync.Mutex
	inFlight map[string]SubmissionState
}

// SubmitterOption configures a Submitter.
type SubmitterOption func(*Submitter)

// WithStateObserver registers fn to receive state transitions.
func WithStateObserver(fn StateObserver) SubmitterOption {
	return func(s *Submitter) {
		s.observer = fn
	}
}

// NewSubmitter creates a Submitter. A nil images service refuses uploads
// with assets.ErrNoAssetHost.
func NewSubmitter(posts Service, images assets.Service, logger *slog.Logger, opts ...SubmitterOption) *Submitter {
	if logger == nil {
		logger = slog.Default()
	}
	if images == nil {
		images = assets.NewService(nil, assets.WithLogger(logger))
	}
	s := &Submitter{
		posts:    posts,
		images:   images,
		logger:   logger,
		inFlight: make(map[string]SubmissionState),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the user's current submission state.
func (s *Submitter) State(userID string) SubmissionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.inFlight[userID]; ok {
		return st
	}
	return StateIdle
}

func (s *Submitter) begin(userID string) bool {
	s.mu.Lock()
	if s.inFlight[userID].Busy() {
		s.mu.Unlock()
		return false
	}
	s.inFlight[userID] = StateValidating
	s.mu.Unlock()
	s.notify(userID, StateValidating)
	return true
}

func (s *Submitter) transition(userID string, state SubmissionState) {
	s.mu.Lock()
	if state == StateIdle || state == StateClosed {
		delete(s.inFlight, userID)
	} else {
		s.inFlight[userID] = state
	}
	s.mu.Unlock()
	s.notify(userID, state)
}

func (s *Submitter) notify(userID string, state SubmissionState) {
	if s.observer != nil {
		s.observer(userID, state)
	}
}

// Submit validates the form, uploads the image if one was attached, and
// inserts the post. On failure the flow returns to idle and the error is
// suitable for UserMessage.
func (s *Submitter) Submit(ctx context.Context, authorID string, form SubmissionForm) (*Post, error) {
	if authorID == "" {
		return nil, ErrUnauthenticated
	}
	if !s.begin(authorID) {
		return nil, ErrSubmissionInProgress
	}

	post, err := s.run(ctx, authorID, form)
	if err != nil {
		s.transition(authorID, StateIdle)
		return nil, err
	}
	s.transition(authorID, StateClosed)
	return post, nil
}

func (s *Submitter) run(ctx context.Context, authorID string, form SubmissionForm) (*Post, error) {
	req := CreatePostRequest{
		Title:       form.Title,
		Content:     form.Content,
		ImageURL:    form.ImageURL,
		ExternalURL: form.ExternalURL,
	}
	if form.Image != nil {
		// The uploaded file wins over a typed URL, so the URL is not validated.
		req.ImageURL = ""
	}
	if _, err := NormalizeRequest(req); err != nil {
		return nil, err
	}

	if form.Image != nil {
		if err := s.images.Validate(form.Image); err != nil {
			return nil, NewValidationError("image", assets.UserMessage(err, s.images.MaxBytes()))
		}

		s.transition(authorID, StateUploading)
		imageURL, err := s.images.Upload(ctx, form.Image)
		if err != nil {
			if isImageRejection(err) {
				return nil, NewValidationError("image", assets.UserMessage(err, s.images.MaxBytes()))
			}
			s.logger.Error("image upload failed", "user_id", authorID, "error", err)
			return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
		req.ImageURL = imageURL
	}

	s.transition(authorID, StateSubmitting)
	post, err := s.posts.CreatePost(ctx, authorID, req)
	if err != nil {
		s.logger.Error("error uploading post", "user_id", authorID, "error", err)
		return nil, err
	}
	return post, nil
}

// isImageRejection reports upload errors the author can act on, as opposed
// to a storage failure.
func isImageRejection(err error) bool {
	return errors.Is(err, assets.ErrImageTooLarge) ||
		errors.Is(err, assets.ErrUnsupportedFormat) ||
		errors.Is(err, assets.ErrEmptyImage) ||
		errors.Is(err, assets.ErrNoAssetHost)
}
