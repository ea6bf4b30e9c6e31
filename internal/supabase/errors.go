package supabase

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// Typed errors for backend operations.
// Callers use errors.Is() against these instead of inspecting status codes.
var (
	// ErrUnauthorized indicates the access token was missing, invalid or expired (HTTP 401).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates row level security or a policy rejected the request (HTTP 403).
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the requested row or resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrBadRequest indicates the request was malformed (HTTP 400).
	ErrBadRequest = errors.New("bad request")

	// ErrConflict indicates a uniqueness or foreign key conflict (HTTP 409).
	ErrConflict = errors.New("conflict")

	// ErrRateLimited indicates the backend throttled the request (HTTP 429).
	ErrRateLimited = errors.New("rate limited")
)

// APIError is an error response returned by PostgREST or GoTrue.
// Code carries the machine-readable code (a Postgres SQLSTATE such as 23505 for
// PostgREST, or an error_code for GoTrue).
type APIError struct {
	Status  int
	Code    string
	Message string
	Details string
	Hint    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase: %s (code %s, status %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("supabase: %s (status %d)", e.Message, e.Status)
}

// SQLState returns the backend error code, so callers can treat PostgREST and
// direct driver errors alike.
func (e *APIError) SQLState() string {
	return e.Code
}

// Unwrap maps the HTTP status onto the package sentinels.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound, http.StatusNotAcceptable:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return nil
}

// ErrorCode returns the backend error code carried by err, or "" when err is
// not an APIError.
func ErrorCode(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

// ErrorMessage returns the raw backend message carried by err, falling back to
// err.Error().
func ErrorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

// IsAuthError returns true if re-authenticating might help.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}

// IsNotFound reports whether err means the resource does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// parseAPIError builds an APIError from an error response body.
// PostgREST uses {code,message,details,hint}; GoTrue uses {code,error_code,msg}
// or the OAuth style {error,error_description}.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		apiErr.Message = http.StatusText(status)
		if len(body) > 0 && len(body) < 512 {
			apiErr.Message = string(body)
		}
		return apiErr
	}

	apiErr.Code = firstString(raw, "error_code", "code", "error")
	apiErr.Message = firstString(raw, "message", "msg", "error_description", "error")
	apiErr.Details = firstString(raw, "details")
	apiErr.Hint = firstString(raw, "hint")
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func firstString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
