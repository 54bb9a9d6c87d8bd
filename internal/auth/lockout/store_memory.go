package lockout

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// InMemory keeps records in an expiring cache; a record disappears once its
// window and any lock have passed.
type InMemory struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewInMemory() *InMemory {
	return &InMemory{cache: cache.New(cache.NoExpiration, 5*time.Minute)}
}

func (s *InMemory) Get(_ context.Context, identifier string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.cache.Get(identifier)
	if !ok {
		return nil, nil
	}
	cp := *v.(*Record)
	return &cp, nil
}

func (s *InMemory) RecordFailure(_ context.Context, identifier string, now time.Time, window time.Duration) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := &Record{Identifier: identifier}
	if v, ok := s.cache.Get(identifier); ok {
		prev := v.(*Record)
		if !prev.LastFailureAt.Before(now.Add(-window)) {
			*rec = *prev
		}
	}
	rec.FailureCount++
	rec.LastFailureAt = now
	s.cache.Set(identifier, rec, window)
	cp := *rec
	return &cp, nil
}

func (s *InMemory) Lock(_ context.Context, identifier string, until time.Time, window time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := &Record{Identifier: identifier, LastFailureAt: until}
	if v, ok := s.cache.Get(identifier); ok {
		cp := *v.(*Record)
		rec = &cp
	}
	rec.LockedUntil = &until
	s.cache.Set(identifier, rec, until.Sub(rec.LastFailureAt)+window)
	return nil
}

// Clear is idempotent.
func (s *InMemory) Clear(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Delete(identifier)
	return nil
}
