package store

import (
	"context"
	"sort"
	"sync"

	"juntas/internal/certificados/models"
	"juntas/pkg/domain"
)

type InMemory struct {
	mu           sync.RWMutex
	certificados map[domain.CertificadoID]*models.Certificado
}

func NewInMemory() *InMemory {
	return &InMemory{certificados: make(map[domain.CertificadoID]*models.Certificado)}
}

func clone(c *models.Certificado) *models.Certificado {
	cp := *c
	if c.MandatarioID != nil {
		v := *c.MandatarioID
		cp.MandatarioID = &v
	}
	return &cp
}

func (s *InMemory) Create(_ context.Context, c *models.Certificado) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.certificados[c.ID]; ok {
		return ErrConflict
	}
	s.certificados[c.ID] = clone(c)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.CertificadoID) (*models.Certificado, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.certificados[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(c), nil
}

// ListByJunta returns newest first. A zero junta lists every certificate.
func (s *InMemory) ListByJunta(_ context.Context, junta domain.JuntaID) ([]*models.Certificado, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Certificado, 0)
	for _, c := range s.certificados {
		if junta == 0 || c.JuntaID == junta {
			out = append(out, clone(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmitidoEn.After(out[j].EmitidoEn) })
	return out, nil
}

func (s *InMemory) ReferencesJunta(junta domain.JuntaID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.certificados {
		if c.JuntaID == junta {
			return true
		}
	}
	return false
}
