package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrAlreadySignedIn  = fmt.Errorf("already signed in")
	ErrUnauthorized     = fmt.Errorf("unauthorized")

	// API and transport errors
	ErrAPIRequest = fmt.Errorf("API request failed")
	ErrTransport  = fmt.Errorf("no response from server")
	ErrDecode     = fmt.Errorf("failed to decode response")

	// Local state errors
	ErrBusy           = fmt.Errorf("operation already in progress")
	ErrNoFileSelected = fmt.Errorf("no file selected")
	ErrNoSummary      = fmt.Errorf("no summary available")
	ErrStorage        = fmt.Errorf("local storage failure")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
