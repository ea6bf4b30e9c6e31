package unfurl

import "errors"

var (
	// ErrInvalidURL is returned when the provided URL is invalid
	ErrInvalidURL = errors.New("invalid URL")

	// ErrBlockedHost is returned for hosts the server must not fetch (loopback, private ranges)
	ErrBlockedHost = errors.New("host not allowed")

	// ErrCircuitOpen is returned while a domain's circuit breaker is open
	ErrCircuitOpen = errors.New("circuit breaker open")
)
