package store

import (
	"context"
	"sort"
	"sync"

	"juntas/internal/mandatarios/models"
	"juntas/pkg/domain"
)

type InMemory struct {
	mu          sync.RWMutex
	mandatarios map[domain.MandatarioID]*models.Mandatario
	seq         int64
}

func NewInMemory() *InMemory {
	return &InMemory{mandatarios: make(map[domain.MandatarioID]*models.Mandatario)}
}

func clone(m *models.Mandatario) *models.Mandatario {
	cp := *m
	if m.TipoDocumentoID != nil {
		v := *m.TipoDocumentoID
		cp.TipoDocumentoID = &v
	}
	if m.LugarResidenciaID != nil {
		v := *m.LugarResidenciaID
		cp.LugarResidenciaID = &v
	}
	if m.Asignacion != nil {
		a := *m.Asignacion
		cp.Asignacion = &a
	}
	return &cp
}

func matches(m *models.Mandatario, f models.Filter) bool {
	switch {
	case f.JuntaID != 0 && m.JuntaID != f.JuntaID:
		return false
	case f.Documento != "" && m.Documento != f.Documento:
		return false
	case f.CargoID != 0 && (m.Asignacion.CargoID() == nil || *m.Asignacion.CargoID() != int64(f.CargoID)):
		return false
	case f.ComisionID != 0 && (m.Asignacion.ComisionID() == nil || *m.Asignacion.ComisionID() != int64(f.ComisionID)):
		return false
	}
	return true
}

func (s *InMemory) List(_ context.Context, f models.Filter) ([]*models.Mandatario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Mandatario, 0)
	for _, m := range s.mandatarios {
		if matches(m, f) {
			out = append(out, clone(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Apellidos != out[j].Apellidos {
			return out[i].Apellidos < out[j].Apellidos
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.MandatarioID) (*models.Mandatario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.mandatarios[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(m), nil
}

// FindLatestByDocumento returns the most recently created record for the
// person across all juntas.
func (s *InMemory) FindLatestByDocumento(_ context.Context, documento string) (*models.Mandatario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.Mandatario
	for _, m := range s.mandatarios {
		if m.Documento == documento && (latest == nil || m.ID > latest.ID) {
			latest = m
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return clone(latest), nil
}

func (s *InMemory) Create(_ context.Context, m *models.Mandatario) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memberLocked(m) {
		return ErrYaEsMiembro
	}
	s.seq++
	m.ID = domain.MandatarioID(s.seq)
	s.mandatarios[m.ID] = clone(m)
	return nil
}

func (s *InMemory) Update(_ context.Context, m *models.Mandatario) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mandatarios[m.ID]; !ok {
		return ErrNotFound
	}
	if s.memberLocked(m) {
		return ErrYaEsMiembro
	}
	s.mandatarios[m.ID] = clone(m)
	return nil
}

func (s *InMemory) Delete(_ context.Context, id domain.MandatarioID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mandatarios[id]; !ok {
		return ErrNotFound
	}
	delete(s.mandatarios, id)
	return nil
}

// DeleteByJunta drops every mandate of the junta.
func (s *InMemory) DeleteByJunta(junta domain.JuntaID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, m := range s.mandatarios {
		if m.JuntaID == junta {
			delete(s.mandatarios, id)
		}
	}
}

func (s *InMemory) memberLocked(m *models.Mandatario) bool {
	for id, other := range s.mandatarios {
		if id != m.ID && other.JuntaID == m.JuntaID && other.Documento == m.Documento {
			return true
		}
	}
	return false
}
