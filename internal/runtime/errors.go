package runtime

import "errors"

var (
	// Returned when an image cannot be found, locally or in the remote
	// registry.
	ErrImageNotFound = errors.New("image not found")

	// Returned for daemon failures that are not more specifically typed.
	ErrRuntime = errors.New("runtime error")
)
