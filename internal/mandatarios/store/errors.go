package store

import (
	"fmt"

	"juntas/pkg/platform/sentinel"
)

var (
	ErrNotFound = sentinel.ErrNotFound
	ErrConflict = sentinel.ErrConflict

	// ErrYaEsMiembro is the (junta, documento) unique violation.
	ErrYaEsMiembro = fmt.Errorf("junta documento: %w", sentinel.ErrConflict)
)
