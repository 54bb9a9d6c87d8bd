package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"juntas/pkg/domain"
	audit "juntas/pkg/platform/audit"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ListByUsuario returns events for one user in insertion order.
func (s *InMemoryStore) ListByUsuario(_ context.Context, usuarioID domain.UsuarioID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.UsuarioID == usuarioID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	return s.ListByActions(ctx, nil, limit)
}

// ListByActions filters by action; an empty list matches everything.
func (s *InMemoryStore) ListByActions(_ context.Context, actions []string, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	all := make([]audit.Event, 0, len(s.events))
	for _, e := range s.events {
		if len(actions) == 0 || slices.Contains(actions, e.Action) {
			all = append(all, e)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.After(all[j].Timestamp)
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
