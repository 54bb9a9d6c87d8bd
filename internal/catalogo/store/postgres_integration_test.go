//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"juntas/internal/catalogo/models"
	"juntas/pkg/testutil/containers"
)

type PostgresSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *Postgres
	ctx   context.Context
}

func TestPostgresSuite(t *testing.T) {
	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = NewPostgres(s.pg.DB)
	s.ctx = context.Background()
}

func (s *PostgresSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx,
		"mandatarios", "certificados", "juntas", "cargos", "comisiones", "instituciones", "tipos_junta", "documentos"))
}

func (s *PostgresSuite) TestCRUD() {
	it := &models.Item{Nombre: "Presidente", Descripcion: "Representante legal"}
	s.Require().NoError(s.store.Create(s.ctx, models.KindCargo, it))
	s.NotZero(it.ID)

	it.Descripcion = "Representante legal de la junta"
	s.Require().NoError(s.store.Update(s.ctx, models.KindCargo, it))

	got, err := s.store.FindByNombre(s.ctx, models.KindCargo, "PRESIDENTE")
	s.Require().NoError(err)
	s.Equal(it.Descripcion, got.Descripcion)

	s.Require().NoError(s.store.Delete(s.ctx, models.KindCargo, it.ID))
	_, err = s.store.FindByID(s.ctx, models.KindCargo, it.ID)
	s.ErrorIs(err, ErrNotFound)
}

func (s *PostgresSuite) TestUniqueNombreMapsToConflict() {
	s.Require().NoError(s.store.Create(s.ctx, models.KindComision, &models.Item{Nombre: "Obras"}))
	err := s.store.Create(s.ctx, models.KindComision, &models.Item{Nombre: "Obras"})
	s.ErrorIs(err, ErrConflict)
}

func (s *PostgresSuite) TestEmptyCodigoStoredAsNull() {
	s.Require().NoError(s.store.Create(s.ctx, models.KindDocumento, &models.Item{Nombre: "Cédula", Codigo: "CC"}))
	s.Require().NoError(s.store.Create(s.ctx, models.KindInstitucion, &models.Item{Nombre: "Alcaldía"}))
	s.Require().NoError(s.store.Create(s.ctx, models.KindInstitucion, &models.Item{Nombre: "Gobernación"}))

	items, err := s.store.List(s.ctx, models.KindInstitucion)
	s.Require().NoError(err)
	s.Len(items, 2)
	s.Empty(items[0].Codigo)
}
