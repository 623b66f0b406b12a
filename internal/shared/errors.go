package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Backend errors
	ErrBackendRequest     = fmt.Errorf("backend request failed")
	ErrBackendUnavailable = fmt.Errorf("backend unavailable")
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")

	// Persistence errors
	ErrRunNotFound = fmt.Errorf("run not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
