package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"juntas/internal/auth/models"
	"juntas/pkg/domain"
	"juntas/pkg/platform/sentinel"
)

type SessionStoreSuite struct {
	suite.Suite
	store *InMemory
}

func (s *SessionStoreSuite) SetupTest() {
	s.store = New()
}

func TestSessionStoreSuite(t *testing.T) {
	suite.Run(t, new(SessionStoreSuite))
}

func newSession(usuarioID domain.UsuarioID) *models.Session {
	now := time.Now()
	return &models.Session{
		ID:        domain.NewSessionID(),
		UsuarioID: usuarioID,
		Rol:       domain.RolAuxiliar,
		Nombre:    "Ana Rojas",
		Email:     "ana@boyaca.gov.co",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
}

func (s *SessionStoreSuite) TestLookup() {
	ctx := context.Background()

	s.Run("returns a copy of the stored session", func() {
		sess := newSession(1)
		s.Require().NoError(s.store.Create(ctx, sess, time.Hour))

		found, err := s.store.Find(ctx, sess.ID)
		s.Require().NoError(err)
		s.Equal(sess, found)
		s.NotSame(sess, found)
	})

	s.Run("unknown id is ErrNotFound", func() {
		_, err := s.store.Find(ctx, domain.NewSessionID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("non-positive ttl stores nothing", func() {
		sess := newSession(1)
		s.Require().NoError(s.store.Create(ctx, sess, 0))
		_, err := s.store.Find(ctx, sess.ID)
		s.ErrorIs(err, ErrNotFound)
	})
}

func (s *SessionStoreSuite) TestExpiry() {
	ctx := context.Background()
	sess := newSession(2)
	s.Require().NoError(s.store.Create(ctx, sess, 20*time.Millisecond))

	s.Require().Eventually(func() bool {
		_, err := s.store.Find(ctx, sess.ID)
		return err != nil
	}, time.Second, 10*time.Millisecond)
}

func (s *SessionStoreSuite) TestDelete() {
	ctx := context.Background()

	s.Run("removes the session and is idempotent", func() {
		sess := newSession(3)
		s.Require().NoError(s.store.Create(ctx, sess, time.Hour))

		s.Require().NoError(s.store.Delete(ctx, sess.ID))
		s.Require().NoError(s.store.Delete(ctx, sess.ID))

		_, err := s.store.Find(ctx, sess.ID)
		s.ErrorIs(err, ErrNotFound)
	})

	s.Run("DeleteByUsuario only touches that user", func() {
		a1, a2, b := newSession(10), newSession(10), newSession(11)
		for _, sess := range []*models.Session{a1, a2, b} {
			s.Require().NoError(s.store.Create(ctx, sess, time.Hour))
		}

		n, err := s.store.DeleteByUsuario(ctx, 10)
		s.Require().NoError(err)
		s.Equal(2, n)

		_, err = s.store.Find(ctx, a1.ID)
		s.ErrorIs(err, ErrNotFound)
		_, err = s.store.Find(ctx, b.ID)
		s.NoError(err)
	})
}
