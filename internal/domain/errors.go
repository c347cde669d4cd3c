package domain

import "errors"

// Filesystem errors returned by adapters and the core packages
var (
	// ErrNotFound indicates the requested path does not exist
	ErrNotFound = errors.New("path not found")

	// ErrAlreadyExists indicates the path already exists
	ErrAlreadyExists = errors.New("path already exists")

	// ErrPermissionDenied indicates insufficient permissions
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotDirectory indicates expected a directory but got a file
	ErrNotDirectory = errors.New("not a directory")

	// ErrNotFile indicates expected a file but got a directory
	ErrNotFile = errors.New("not a file")

	// ErrUnreadable indicates a file or directory could not be opened for reading
	ErrUnreadable = errors.New("unreadable")

	// ErrWriteFailure indicates a chunk write, copy or create failed
	ErrWriteFailure = errors.New("write failure")

	// ErrInvalidArgument indicates a bad parameter such as a non-positive chunk size
	ErrInvalidArgument = errors.New("invalid argument")
)

// Service errors
var (
	// ErrSyncInProgress indicates another sync already holds the lock
	ErrSyncInProgress = errors.New("sync already in progress")
)

// Config errors
var (
	// ErrConfigNotFound indicates config file not found
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigInvalid indicates config file is malformed
	ErrConfigInvalid = errors.New("invalid config")

	// ErrJobNotFound indicates a referenced sync job doesn't exist
	ErrJobNotFound = errors.New("sync job not found")
)
