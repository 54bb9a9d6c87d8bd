package store

import "juntas/pkg/platform/sentinel"

var (
	ErrNotFound = sentinel.ErrNotFound
	ErrConflict = sentinel.ErrConflict
	// ErrInUse is returned when children, juntas or mandatarios still reference the place.
	ErrInUse = sentinel.ErrInvalidState
)
