package store

import (
	"context"
	"sort"
	"sync"

	"juntas/internal/lugares/models"
	"juntas/pkg/domain"
	strutil "juntas/pkg/platform/strings"
)

type InMemory struct {
	mu      sync.RWMutex
	lugares map[domain.LugarID]*models.Lugar
	seq     int64
}

func NewInMemory() *InMemory {
	return &InMemory{lugares: make(map[domain.LugarID]*models.Lugar)}
}

func clone(l *models.Lugar) *models.Lugar {
	cp := *l
	if l.PadreID != nil {
		p := *l.PadreID
		cp.PadreID = &p
	}
	return &cp
}

func sameParent(a, b *domain.LugarID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *InMemory) List(_ context.Context, f models.Filter) ([]*models.Lugar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Lugar, 0)
	for _, l := range s.lugares {
		if f.Tipo != "" && l.Tipo != f.Tipo {
			continue
		}
		if f.PadreID != nil && !sameParent(l.PadreID, f.PadreID) {
			continue
		}
		out = append(out, clone(l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.LugarID) (*models.Lugar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lugares[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(l), nil
}

func (s *InMemory) FindByNombre(_ context.Context, tipo models.Tipo, padreID *domain.LugarID, nombre string) (*models.Lugar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := strutil.Fold(nombre)
	for _, l := range s.lugares {
		if l.Tipo == tipo && sameParent(l.PadreID, padreID) && strutil.Fold(l.Nombre) == key {
			return clone(l), nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemory) CountChildren(_ context.Context, id domain.LugarID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, l := range s.lugares {
		if l.PadreID != nil && *l.PadreID == id {
			n++
		}
	}
	return n, nil
}

func (s *InMemory) Create(_ context.Context, l *models.Lugar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.daneTakenLocked(l) {
		return ErrConflict
	}
	s.seq++
	l.ID = domain.LugarID(s.seq)
	s.lugares[l.ID] = clone(l)
	return nil
}

func (s *InMemory) Update(_ context.Context, l *models.Lugar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lugares[l.ID]; !ok {
		return ErrNotFound
	}
	if s.daneTakenLocked(l) {
		return ErrConflict
	}
	s.lugares[l.ID] = clone(l)
	return nil
}

func (s *InMemory) Delete(_ context.Context, id domain.LugarID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lugares[id]; !ok {
		return ErrNotFound
	}
	for _, l := range s.lugares {
		if l.PadreID != nil && *l.PadreID == id {
			return ErrInUse
		}
	}
	delete(s.lugares, id)
	return nil
}

func (s *InMemory) daneTakenLocked(l *models.Lugar) bool {
	if l.CodigoDane == "" {
		return false
	}
	for id, other := range s.lugares {
		if id != l.ID && other.CodigoDane == l.CodigoDane {
			return true
		}
	}
	return false
}
