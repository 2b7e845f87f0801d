package ads

import (
	"errors"
	"fmt"
)

// Common errors returned by the ADS client.
var (
	// ErrAuth indicates a missing or rejected API token.
	ErrAuth = errors.New("ADS authentication error")

	// ErrRateLimited indicates the rate limit has been exceeded.
	ErrRateLimited = errors.New("ADS rate limit exceeded")

	// ErrBadResponse indicates the API kept returning bad status codes
	// after the bounded retries were exhausted.
	ErrBadResponse = errors.New("bad response from ADS")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with ADS")

	// ErrInvalidResponse indicates an unparseable API response.
	ErrInvalidResponse = errors.New("invalid response from ADS")
)

// APIError represents a non-retryable error from the ADS search API.
type APIError struct {
	StatusCode int
	Query      string
	Message    string
}

func (e *APIError) Error() string {
	if e.Query != "" {
		return fmt.Sprintf("ADS API error (status %d): %s (query: %s)", e.StatusCode, e.Message, e.Query)
	}
	return fmt.Sprintf("ADS API error (status %d): %s", e.StatusCode, e.Message)
}

// IsAuthError returns true if the error indicates an authentication problem.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrAuth) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401 || apiErr.StatusCode == 403
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// IsTransient returns true for fetch failures that should skip the current
// author or publication rather than abort the whole run.
func IsTransient(err error) bool {
	return errors.Is(err, ErrBadResponse) || errors.Is(err, ErrNetworkError)
}
