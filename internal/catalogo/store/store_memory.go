package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"juntas/internal/catalogo/models"
)

// InMemory keeps every lookup table in process. Reference checks on delete
// are not enforced.
type InMemory struct {
	mu     sync.RWMutex
	tables map[models.Kind]map[int64]*models.Item
	seq    map[models.Kind]int64
}

func NewInMemory() *InMemory {
	s := &InMemory{
		tables: make(map[models.Kind]map[int64]*models.Item),
		seq:    make(map[models.Kind]int64),
	}
	for _, k := range models.Kinds() {
		s.tables[k] = make(map[int64]*models.Item)
	}
	return s
}

func (s *InMemory) List(_ context.Context, kind models.Kind) ([]*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Item, 0, len(s.tables[kind]))
	for _, it := range s.tables[kind] {
		cp := *it
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, nil
}

func (s *InMemory) FindByID(_ context.Context, kind models.Kind, id int64) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.tables[kind][id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (s *InMemory) FindByNombre(_ context.Context, kind models.Kind, nombre string) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.tables[kind] {
		if strings.EqualFold(it.Nombre, nombre) {
			cp := *it
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemory) FindByCodigo(_ context.Context, kind models.Kind, codigo string) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.tables[kind] {
		if it.Codigo != "" && strings.EqualFold(it.Codigo, codigo) {
			cp := *it
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemory) Create(_ context.Context, kind models.Kind, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.duplicateLocked(kind, item) {
		return ErrConflict
	}
	s.seq[kind]++
	item.ID = s.seq[kind]
	cp := *item
	s.tables[kind][item.ID] = &cp
	return nil
}

func (s *InMemory) Update(_ context.Context, kind models.Kind, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[kind][item.ID]; !ok {
		return ErrNotFound
	}
	if s.duplicateLocked(kind, item) {
		return ErrConflict
	}
	cp := *item
	s.tables[kind][item.ID] = &cp
	return nil
}

func (s *InMemory) Delete(_ context.Context, kind models.Kind, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables[kind][id]; !ok {
		return ErrNotFound
	}
	delete(s.tables[kind], id)
	return nil
}

func (s *InMemory) duplicateLocked(kind models.Kind, item *models.Item) bool {
	for id, it := range s.tables[kind] {
		if id == item.ID {
			continue
		}
		if strings.EqualFold(it.Nombre, item.Nombre) {
			return true
		}
		if item.Codigo != "" && strings.EqualFold(it.Codigo, item.Codigo) {
			return true
		}
	}
	return false
}
