package remote

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned when the remote answers 404. It is never retried.
	ErrNotFound = errors.New("not found")
	// ErrRateLimited is returned for 403 and 429 responses.
	ErrRateLimited = errors.New("rate limited (set GITHUB_TOKEN for higher limits)")
	// ErrStatus matches any other unexpected status.
	ErrStatus = errors.New("unexpected status")
	// ErrMalformedListing is returned when a listing does not match the
	// contents schema.
	ErrMalformedListing = errors.New("malformed listing")
	// ErrBodyTooLarge is returned for a response longer than the read cap.
	// It is never retried.
	ErrBodyTooLarge = errors.New("response body too large")
)

// StatusError records a non-2xx HTTP response.
type StatusError struct {
	Code   int
	Method string
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Code)
}

// StatusCode lets retry.Classify recognise status failures.
func (e *StatusError) StatusCode() int { return e.Code }

// Unwrap maps the status code onto the package sentinels.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusForbidden, http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return ErrStatus
	}
}
