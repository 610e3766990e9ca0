package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrSessionExpired     = fmt.Errorf("session expired")
	ErrProtocolChanged    = fmt.Errorf("unexpected response shape from platform")
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")

	// Transport errors
	ErrConnectionFailed = fmt.Errorf("connection failed")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and content errors
	ErrAPIRequest      = fmt.Errorf("API request failed")
	ErrProjectNotFound = fmt.Errorf("project not found")

	// Upload errors
	ErrFileTooLarge        = fmt.Errorf("file rejected: too large")
	ErrUnsupportedFileType = fmt.Errorf("file rejected: unsupported type")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
