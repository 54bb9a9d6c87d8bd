// Package reset records issued password-reset tokens so each one can be
// consumed exactly once.
package reset

import (
	"context"
	"sync"
	"time"

	"juntas/internal/auth/models"
	"juntas/pkg/platform/sentinel"
)

var (
	ErrNotFound    = sentinel.ErrNotFound
	ErrAlreadyUsed = sentinel.ErrAlreadyUsed
	ErrExpired     = sentinel.ErrExpired
)

type InMemory struct {
	mu   sync.Mutex
	rows map[string]*models.PasswordReset
}

func NewInMemory() *InMemory {
	return &InMemory{rows: make(map[string]*models.PasswordReset)}
}

func (s *InMemory) Create(_ context.Context, r *models.PasswordReset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[r.JTI]; ok {
		return sentinel.ErrConflict
	}
	cp := *r
	s.rows[r.JTI] = &cp
	return nil
}

// Consume marks jti used at now and returns the row as it was before.
func (s *InMemory) Consume(_ context.Context, jti string, now time.Time) (*models.PasswordReset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[jti]
	if !ok {
		return nil, ErrNotFound
	}
	if r.UsedAt != nil {
		return nil, ErrAlreadyUsed
	}
	if !now.Before(r.ExpiresAt) {
		return nil, ErrExpired
	}
	cp := *r
	used := now
	r.UsedAt = &used
	return &cp, nil
}
