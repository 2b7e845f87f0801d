package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mcalpine/citetrack/internal/ads"
	"github.com/mcalpine/citetrack/internal/store"
)

// Title truncation lengths by context
const (
	ReportTitleMaxLen = 60 // Used in report tables
	ListTitleMaxLen   = 50 // Used in list command output
	SearchTitleMaxLen = 70 // Used in search result summaries
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// exitWithError outputs an error in the appropriate format (human or JSON)
// and exits with a code matching the error class.
func exitWithError(err error, fallbackCode int) {
	code, errCode := classifyError(err, fallbackCode)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
	} else {
		_ = outputJSON(ErrorResponse{Error: err.Error(), Code: errCode})
	}
	os.Exit(code)
}

// exitWithErrorf is exitWithError for ad-hoc messages.
func exitWithErrorf(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		_ = outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// classifyError maps sentinel errors onto exit and JSON error codes.
func classifyError(err error, fallbackCode int) (int, string) {
	switch {
	case ads.IsAuthError(err):
		return ExitAuthError, "auth_error"
	case ads.IsRateLimited(err):
		return ExitAPIError, "rate_limited"
	case errors.Is(err, ads.ErrBadResponse), errors.Is(err, ads.ErrInvalidResponse), errors.Is(err, ads.ErrNetworkError):
		return ExitAPIError, "api_error"
	case errors.Is(err, store.ErrNotFound):
		return ExitNotFound, "not_found"
	}
	return fallbackCode, "error"
}

// truncateString truncates a string to maxLen runes, adding "..." if
// truncated. Counting runes keeps accented names and math symbols intact.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// formatAuthorsShort abbreviates a stored "; "-separated author list.
func formatAuthorsShort(authors string, maxCount int) string {
	if authors == "" {
		return "Unknown"
	}
	names := strings.Split(authors, "; ")
	if len(names) > maxCount {
		return strings.Join(names[:maxCount], "; ") + " et al."
	}
	return strings.Join(names, "; ")
}

// maskToken hides all but the edges of an API token.
func maskToken(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}
