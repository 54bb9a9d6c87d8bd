// Package sentinel holds infrastructure facts returned by stores. Services
// translate them into domain-errors; handlers never see them directly.
package sentinel

import "errors"

var (
	// ErrNotFound means the row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a unique constraint rejected the write, for example a
	// repeated personería number or documento within one junta.
	ErrConflict = errors.New("conflict")
	// ErrExpired marks a reset token past its expiry.
	ErrExpired = errors.New("expired")
	// ErrAlreadyUsed marks a reset token that was already consumed.
	ErrAlreadyUsed = errors.New("already used")
	// ErrInvalidState means a foreign key or check constraint failed, or the
	// record is in the wrong lifecycle state for the operation.
	ErrInvalidState = errors.New("invalid state")
)
