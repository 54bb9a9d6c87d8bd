package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"juntas/internal/juntas/models"
	"juntas/pkg/domain"
	strutil "juntas/pkg/platform/strings"
)

// Referrer is an in-memory store whose rows block deleting a junta, the way
// the certificados foreign key does in Postgres.
type Referrer interface {
	ReferencesJunta(id domain.JuntaID) bool
}

// Cascader is an in-memory store whose rows go away with their junta
// (ON DELETE CASCADE in Postgres).
type Cascader interface {
	DeleteByJunta(id domain.JuntaID)
}

type InMemory struct {
	mu        sync.RWMutex
	juntas    map[domain.JuntaID]*models.Junta
	seq       int64
	referrers []Referrer
	cascaders []Cascader
}

type MemoryOption func(*InMemory)

func WithReferrers(r ...Referrer) MemoryOption {
	return func(s *InMemory) { s.referrers = append(s.referrers, r...) }
}

func WithCascade(c ...Cascader) MemoryOption {
	return func(s *InMemory) { s.cascaders = append(s.cascaders, c...) }
}

func NewInMemory(opts ...MemoryOption) *InMemory {
	s := &InMemory{juntas: make(map[domain.JuntaID]*models.Junta)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func clone(j *models.Junta) *models.Junta {
	cp := *j
	if j.InstitucionID != nil {
		v := *j.InstitucionID
		cp.InstitucionID = &v
	}
	if j.JuntaAnteriorID != nil {
		v := *j.JuntaAnteriorID
		cp.JuntaAnteriorID = &v
	}
	return &cp
}

func matches(j *models.Junta, f models.Filter) bool {
	if f.Activo != nil && j.Activo != *f.Activo {
		return false
	}
	if f.LugarID != 0 && j.LugarID != f.LugarID {
		return false
	}
	if f.TipoJuntaID != 0 && j.TipoJuntaID != f.TipoJuntaID {
		return false
	}
	if f.Q != "" {
		q := strutil.Fold(f.Q)
		if !strings.Contains(strutil.Fold(j.RazonSocial), q) && !strings.Contains(strutil.Fold(j.NumPersoneriaJuridica), q) {
			return false
		}
	}
	return true
}

func (s *InMemory) List(_ context.Context, f models.Filter) ([]*models.Junta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Junta, 0)
	for _, j := range s.juntas {
		if matches(j, f) {
			out = append(out, clone(j))
		}
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].RazonSocial != out[k].RazonSocial {
			return out[i].RazonSocial < out[k].RazonSocial
		}
		return out[i].ID > out[k].ID
	})
	return out, nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.JuntaID) (*models.Junta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.juntas[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(j), nil
}

func (s *InMemory) FindActivaByPersoneria(_ context.Context, num string) (*models.Junta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, j := range s.juntas {
		if j.Activo && strings.EqualFold(j.NumPersoneriaJuridica, num) {
			return clone(j), nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemory) FindSucesora(_ context.Context, id domain.JuntaID) (*models.Junta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, j := range s.juntas {
		if j.JuntaAnteriorID != nil && *j.JuntaAnteriorID == id {
			return clone(j), nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemory) Create(_ context.Context, j *models.Junta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.personeriaTakenLocked(j) {
		return ErrPersoneriaTaken
	}
	s.seq++
	j.ID = domain.JuntaID(s.seq)
	s.juntas[j.ID] = clone(j)
	return nil
}

func (s *InMemory) Update(_ context.Context, j *models.Junta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.juntas[j.ID]; !ok {
		return ErrNotFound
	}
	if s.personeriaTakenLocked(j) {
		return ErrPersoneriaTaken
	}
	s.juntas[j.ID] = clone(j)
	return nil
}

func (s *InMemory) Delete(_ context.Context, id domain.JuntaID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.juntas[id]; !ok {
		return ErrNotFound
	}
	for _, j := range s.juntas {
		if j.JuntaAnteriorID != nil && *j.JuntaAnteriorID == id {
			return ErrInUse
		}
	}
	for _, r := range s.referrers {
		if r.ReferencesJunta(id) {
			return ErrInUse
		}
	}
	delete(s.juntas, id)
	for _, c := range s.cascaders {
		c.DeleteByJunta(id)
	}
	return nil
}

// personeriaTakenLocked mirrors the partial unique index on active rows.
func (s *InMemory) personeriaTakenLocked(j *models.Junta) bool {
	if !j.Activo {
		return false
	}
	for id, other := range s.juntas {
		if id != j.ID && other.Activo && strings.EqualFold(other.NumPersoneriaJuridica, j.NumPersoneriaJuridica) {
			return true
		}
	}
	return false
}
