package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (no database path, no token)
	ExitAuthError   = 3 // ADS rejected the API token
	ExitAPIError    = 4 // ADS query failure (network, rate limit, bad response)
	ExitNotFound    = 5 // Requested author or publication not in the snapshot
)
