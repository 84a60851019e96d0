package repositories

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a create violates a unique field.
	ErrDuplicate = errors.New("duplicate record")
)
