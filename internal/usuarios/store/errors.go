package store

import (
	"fmt"

	"juntas/pkg/platform/sentinel"
)

var (
	ErrNotFound = sentinel.ErrNotFound
	ErrConflict = sentinel.ErrConflict
	ErrInUse    = sentinel.ErrInvalidState

	ErrEmailTaken     = fmt.Errorf("email: %w", sentinel.ErrConflict)
	ErrDocumentoTaken = fmt.Errorf("documento: %w", sentinel.ErrConflict)
)
