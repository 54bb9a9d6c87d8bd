package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"juntas/internal/auth/models"
	"juntas/pkg/domain"
	"juntas/pkg/platform/sentinel"
)

var ErrNotFound = sentinel.ErrNotFound

// InMemory keeps sessions in a process-local expiring cache. Used when no
// Redis URL is configured; sessions do not survive a restart.
type InMemory struct {
	cache *cache.Cache
}

func New() *InMemory {
	return &InMemory{cache: cache.New(cache.NoExpiration, 10*time.Minute)}
}

func (s *InMemory) Create(_ context.Context, sess *models.Session, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	cp := *sess
	s.cache.Set(sess.ID.String(), &cp, ttl)
	return nil
}

func (s *InMemory) Find(_ context.Context, id domain.SessionID) (*models.Session, error) {
	v, ok := s.cache.Get(id.String())
	if !ok {
		return nil, ErrNotFound
	}
	cp := *v.(*models.Session)
	return &cp, nil
}

// Delete is idempotent.
func (s *InMemory) Delete(_ context.Context, id domain.SessionID) error {
	s.cache.Delete(id.String())
	return nil
}

func (s *InMemory) DeleteByUsuario(_ context.Context, usuarioID domain.UsuarioID) (int, error) {
	n := 0
	for key, item := range s.cache.Items() {
		if sess, ok := item.Object.(*models.Session); ok && sess.UsuarioID == usuarioID {
			s.cache.Delete(key)
			n++
		}
	}
	return n, nil
}
