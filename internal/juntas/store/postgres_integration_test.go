//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"juntas/internal/juntas/models"
	"juntas/internal/platform/database"
	"juntas/pkg/domain"
	"juntas/pkg/testutil/containers"
)

type PostgresSuite struct {
	suite.Suite
	pg     *containers.PostgresContainer
	store  *Postgres
	ctx    context.Context
	lugar  domain.LugarID
	tipoID domain.TipoJuntaID
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
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "certificados", "mandatarios", "juntas", "lugares", "tipos_junta"))

	var dep, prov, mun int64
	s.Require().NoError(s.pg.DB.QueryRowContext(s.ctx,
		`INSERT INTO lugares (nombre, tipo) VALUES ('Boyacá', 'Departamento') RETURNING id`).Scan(&dep))
	s.Require().NoError(s.pg.DB.QueryRowContext(s.ctx,
		`INSERT INTO lugares (nombre, tipo, padre_id) VALUES ('Centro', 'Provincia', $1) RETURNING id`, dep).Scan(&prov))
	s.Require().NoError(s.pg.DB.QueryRowContext(s.ctx,
		`INSERT INTO lugares (nombre, tipo, padre_id) VALUES ('Tunja', 'Municipio', $1) RETURNING id`, prov).Scan(&mun))
	var tipo int64
	s.Require().NoError(s.pg.DB.QueryRowContext(s.ctx,
		`INSERT INTO tipos_junta (nombre, codigo) VALUES ('Junta de Acción Comunal', 'JAC') RETURNING id`).Scan(&tipo))
	s.lugar = domain.LugarID(mun)
	s.tipoID = domain.TipoJuntaID(tipo)
}

func (s *PostgresSuite) newJunta(personeria string) *models.Junta {
	inicio := domain.NewFecha(2022, time.July, 1)
	return &models.Junta{
		RazonSocial:           "JAC Barrio Centro",
		Direccion:             "Calle 19 # 9-35",
		NumPersoneriaJuridica: personeria,
		FechaCreacion:         domain.NewFecha(1999, time.February, 28),
		Zona:                  models.ZonaUrbana,
		FechaInicioPeriodo:    inicio,
		FechaFinPeriodo:       models.FinPeriodo(inicio),
		TipoJuntaID:           s.tipoID,
		LugarID:               s.lugar,
		Activo:                true,
		CreatedAt:             time.Now().UTC(),
		UpdatedAt:             time.Now().UTC(),
	}
}

func (s *PostgresSuite) TestRoundTrip() {
	j := s.newJunta("PJ-100")
	s.Require().NoError(s.store.Create(s.ctx, j))
	s.NotZero(j.ID)

	got, err := s.store.FindByID(s.ctx, j.ID)
	s.Require().NoError(err)
	s.Equal("2026-07-01", got.FechaFinPeriodo.String())
	s.Equal("1999-02-28", got.FechaCreacion.String())
	s.True(got.FechaAsamblea.IsZero())
	s.Nil(got.InstitucionID)
	s.Equal(models.ZonaUrbana, got.Zona)
}

func (s *PostgresSuite) TestPeriodCheckConstraint() {
	j := s.newJunta("PJ-101")
	j.FechaFinPeriodo = j.FechaInicioPeriodo.AddYears(3)
	s.ErrorIs(s.store.Create(s.ctx, j), ErrConflict)
}

func (s *PostgresSuite) TestPeriodChangeInTransaction() {
	old := s.newJunta("PJ-200")
	s.Require().NoError(s.store.Create(s.ctx, old))

	tx := database.NewPostgresTx(s.pg.DB)
	err := tx.RunInTx(s.ctx, func(ctx context.Context) error {
		s.Require().NoError(old.CerrarPeriodo(ctx))
		if err := s.store.Update(ctx, old); err != nil {
			return err
		}
		next := old.SiguientePeriodo(models.CambioPeriodoRequest{FechaInicioPeriodo: domain.NewFecha(2026, time.July, 2)})
		return s.store.Create(ctx, next)
	})
	s.Require().NoError(err)

	next, err := s.store.FindSucesora(s.ctx, old.ID)
	s.Require().NoError(err)
	s.True(next.Activo)
	s.Equal("2030-07-02", next.FechaFinPeriodo.String())

	activa, err := s.store.FindActivaByPersoneria(s.ctx, "pj-200")
	s.Require().NoError(err)
	s.Equal(next.ID, activa.ID)

	s.ErrorIs(s.store.Delete(s.ctx, old.ID), ErrInUse)
}

func (s *PostgresSuite) TestDuplicateActivePersoneria() {
	s.Require().NoError(s.store.Create(s.ctx, s.newJunta("PJ-300")))
	s.ErrorIs(s.store.Create(s.ctx, s.newJunta("PJ-300")), ErrPersoneriaTaken)
}

func (s *PostgresSuite) TestListFilters() {
	s.Require().NoError(s.store.Create(s.ctx, s.newJunta("PJ-400")))
	inactiva := s.newJunta("PJ-401")
	inactiva.Activo = false
	s.Require().NoError(s.store.Create(s.ctx, inactiva))

	activo := false
	got, err := s.store.List(s.ctx, models.Filter{Activo: &activo, LugarID: s.lugar, Q: "401"})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(inactiva.ID, got[0].ID)
}
