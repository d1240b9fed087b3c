// Package apperr holds sentinel errors shared across packages.
package apperr

import "errors"

var (
	// ErrNotFound is returned when an artifact or document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when creating something that is already there.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidPath is returned for paths that escape their root.
	ErrInvalidPath = errors.New("invalid path")
	// ErrConflict is returned when two sources claim the same output.
	ErrConflict = errors.New("conflict")
)
