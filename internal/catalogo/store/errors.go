package store

import "juntas/pkg/platform/sentinel"

var (
	ErrNotFound = sentinel.ErrNotFound
	ErrConflict = sentinel.ErrConflict
	// ErrInUse is returned when a row is still referenced by juntas or mandatarios.
	ErrInUse = sentinel.ErrInvalidState
)
