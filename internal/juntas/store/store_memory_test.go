package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"juntas/internal/juntas/models"
	"juntas/pkg/domain"
)

type InMemorySuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestInMemorySuite(t *testing.T) {
	suite.Run(t, new(InMemorySuite))
}

func (s *InMemorySuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func newJunta(razon, personeria string, lugar domain.LugarID) *models.Junta {
	inicio := domain.NewFecha(2022, time.July, 1)
	return &models.Junta{
		RazonSocial:           razon,
		NumPersoneriaJuridica: personeria,
		FechaCreacion:         domain.NewFecha(2001, time.May, 10),
		Zona:                  models.ZonaUrbana,
		FechaInicioPeriodo:    inicio,
		FechaFinPeriodo:       models.FinPeriodo(inicio),
		TipoJuntaID:           1,
		LugarID:               lugar,
		Activo:                true,
	}
}

func (s *InMemorySuite) create(j *models.Junta) *models.Junta {
	s.Require().NoError(s.store.Create(s.ctx, j))
	return j
}

func (s *InMemorySuite) TestListFilters() {
	s.create(newJunta("JAC Barrio Santa Inés", "PJ-1", 10))
	s.create(newJunta("JAC Vereda Runta", "PJ-2", 11))
	inactiva := newJunta("JAC Centro", "PJ-3", 10)
	inactiva.Activo = false
	s.create(inactiva)

	activo := true
	got, err := s.store.List(s.ctx, models.Filter{Activo: &activo, LugarID: 10})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("PJ-1", got[0].NumPersoneriaJuridica)

	got, err = s.store.List(s.ctx, models.Filter{Q: "santa ines"})
	s.Require().NoError(err)
	s.Require().Len(got, 1)

	got, err = s.store.List(s.ctx, models.Filter{})
	s.Require().NoError(err)
	s.Len(got, 3)
	s.Equal("JAC Barrio Santa Inés", got[0].RazonSocial)
}

func (s *InMemorySuite) TestPersoneriaUniqueAmongActive() {
	first := s.create(newJunta("JAC Uno", "PJ-9", 10))
	s.ErrorIs(s.store.Create(s.ctx, newJunta("JAC Dos", "pj-9", 10)), ErrPersoneriaTaken)
	s.ErrorIs(s.store.Create(s.ctx, newJunta("JAC Dos", "PJ-9", 10)), ErrConflict)

	first.Activo = false
	s.Require().NoError(s.store.Update(s.ctx, first))
	s.create(newJunta("JAC Dos", "PJ-9", 10))

	got, err := s.store.FindActivaByPersoneria(s.ctx, "pj-9")
	s.Require().NoError(err)
	s.Equal("JAC Dos", got.RazonSocial)
}

func (s *InMemorySuite) TestReturnsCopies() {
	j := s.create(newJunta("JAC Uno", "PJ-1", 10))
	got, err := s.store.FindByID(s.ctx, j.ID)
	s.Require().NoError(err)
	got.RazonSocial = "cambiada"

	again, err := s.store.FindByID(s.ctx, j.ID)
	s.Require().NoError(err)
	s.Equal("JAC Uno", again.RazonSocial)
}

func (s *InMemorySuite) TestSucesoraAndDelete() {
	old := s.create(newJunta("JAC Uno", "PJ-1", 10))
	old.Activo = false
	s.Require().NoError(s.store.Update(s.ctx, old))
	next := newJunta("JAC Uno", "PJ-1", 10)
	next.JuntaAnteriorID = &old.ID
	s.create(next)

	got, err := s.store.FindSucesora(s.ctx, old.ID)
	s.Require().NoError(err)
	s.Equal(next.ID, got.ID)

	s.ErrorIs(s.store.Delete(s.ctx, old.ID), ErrInUse)
	s.Require().NoError(s.store.Delete(s.ctx, next.ID))
	s.Require().NoError(s.store.Delete(s.ctx, old.ID))
	s.ErrorIs(s.store.Delete(s.ctx, old.ID), ErrNotFound)

	_, err = s.store.FindSucesora(s.ctx, old.ID)
	s.ErrorIs(err, ErrNotFound)
}

func (s *InMemorySuite) TestUpdateMissing() {
	s.ErrorIs(s.store.Update(s.ctx, newJunta("x", "y", 1)), ErrNotFound)
}

type fakeRefs struct {
	referenced map[domain.JuntaID]bool
	cascaded   []domain.JuntaID
}

func (f *fakeRefs) ReferencesJunta(id domain.JuntaID) bool { return f.referenced[id] }
func (f *fakeRefs) DeleteByJunta(id domain.JuntaID)        { f.cascaded = append(f.cascaded, id) }

func (s *InMemorySuite) TestDeleteHonoursReferences() {
	certs := &fakeRefs{referenced: map[domain.JuntaID]bool{}}
	mandatos := &fakeRefs{}
	s.store = NewInMemory(WithReferrers(certs), WithCascade(mandatos))

	conCertificado := s.create(newJunta("JAC Dos", "PJ-2", 10))
	certs.referenced[conCertificado.ID] = true
	s.ErrorIs(s.store.Delete(s.ctx, conCertificado.ID), ErrInUse)
	s.Empty(mandatos.cascaded, "a blocked delete cascades nothing")

	libre := s.create(newJunta("JAC Tres", "PJ-3", 10))
	s.Require().NoError(s.store.Delete(s.ctx, libre.ID))
	s.Equal([]domain.JuntaID{libre.ID}, mandatos.cascaded)

	_, err := s.store.FindByID(s.ctx, conCertificado.ID)
	s.NoError(err)
}
