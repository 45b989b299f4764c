package repository

import "errors"

var (
	// ErrInsufficientData means a stage had fewer bars than its window needs.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrMissingDependency means an upstream stage has not produced its output yet.
	ErrMissingDependency = errors.New("missing dependency")
	// ErrNotFound is returned by stores for an unknown key.
	ErrNotFound = errors.New("not found")
	// ErrLocked means another worker holds the unit.
	ErrLocked = errors.New("unit locked")
)

// IsSkippable reports whether err marks an expected, transient skip rather
// than a failure.
func IsSkippable(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrMissingDependency) ||
		errors.Is(err, ErrLocked)
}
