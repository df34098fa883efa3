package main

// Exit codes.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Preferences error (unreadable or invalid file)
	ExitAPIError    = 3 // ADS API error (auth, network, no match)
)
