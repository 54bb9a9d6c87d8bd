package store

import (
	"fmt"

	"juntas/pkg/platform/sentinel"
)

var (
	ErrNotFound = sentinel.ErrNotFound
	ErrConflict = sentinel.ErrConflict
	// ErrInUse is returned when certificates or a later period still reference the junta.
	ErrInUse = sentinel.ErrInvalidState

	ErrPersoneriaTaken = fmt.Errorf("personeria: %w", sentinel.ErrConflict)
)
