package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"juntas/internal/usuarios/models"
	"juntas/pkg/domain"
)

type InMemory struct {
	mu       sync.RWMutex
	usuarios map[domain.UsuarioID]*models.Usuario
	seq      int64
}

func NewInMemory() *InMemory {
	return &InMemory{usuarios: make(map[domain.UsuarioID]*models.Usuario)}
}

func clone(u *models.Usuario) *models.Usuario {
	cp := *u
	if u.Firma != nil {
		f := *u.Firma
		f.Data = append([]byte(nil), u.Firma.Data...)
		cp.Firma = &f
	}
	return &cp
}

func (s *InMemory) List(_ context.Context, f models.Filter) ([]*models.Usuario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Usuario, 0, len(s.usuarios))
	for _, u := range s.usuarios {
		if f.Rol != "" && u.Rol != f.Rol {
			continue
		}
		if f.Activo != nil && u.Activo != *f.Activo {
			continue
		}
		out = append(out, clone(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.UsuarioID) (*models.Usuario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.usuarios[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(u), nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Usuario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.usuarios {
		if strings.EqualFold(u.Email, email) {
			return clone(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemory) FindByDocumento(_ context.Context, documento string) (*models.Usuario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.usuarios {
		if u.Documento == documento {
			return clone(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemory) Create(_ context.Context, u *models.Usuario) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.uniqueLocked(u); err != nil {
		return err
	}
	s.seq++
	u.ID = domain.UsuarioID(s.seq)
	s.usuarios[u.ID] = clone(u)
	return nil
}

func (s *InMemory) Update(_ context.Context, u *models.Usuario) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.usuarios[u.ID]; !ok {
		return ErrNotFound
	}
	if err := s.uniqueLocked(u); err != nil {
		return err
	}
	s.usuarios[u.ID] = clone(u)
	return nil
}

func (s *InMemory) UpdatePassword(_ context.Context, id domain.UsuarioID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.usuarios[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (s *InMemory) Delete(_ context.Context, id domain.UsuarioID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.usuarios[id]; !ok {
		return ErrNotFound
	}
	delete(s.usuarios, id)
	return nil
}

func (s *InMemory) uniqueLocked(u *models.Usuario) error {
	for id, other := range s.usuarios {
		if id == u.ID {
			continue
		}
		if strings.EqualFold(other.Email, u.Email) {
			return ErrEmailTaken
		}
		if other.Documento == u.Documento {
			return ErrDocumentoTaken
		}
	}
	return nil
}
