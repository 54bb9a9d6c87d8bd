//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"juntas/internal/usuarios/models"
	"juntas/pkg/domain"
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
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "certificados", "password_resets", "usuarios"))
}

func (s *PostgresSuite) newUsuario(email, documento string, rol domain.Rol) *models.Usuario {
	return &models.Usuario{
		Nombre:       "Prueba",
		Email:        email,
		Documento:    documento,
		Rol:          rol,
		PasswordHash: "$2a$04$hash",
		Activo:       true,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresSuite) TestCreateFindUpdate() {
	u := s.newUsuario("ana@boyaca.gov.co", "1049600001", domain.RolMandatario)
	u.Firma = &models.Firma{Data: []byte("\x89PNG\r\n\x1a\n"), Mime: "image/png"}
	s.Require().NoError(s.store.Create(s.ctx, u))
	s.NotZero(u.ID)

	got, err := s.store.FindByEmail(s.ctx, "ANA@BOYACA.GOV.CO")
	s.Require().NoError(err)
	s.Require().NotNil(got.Firma)
	s.Equal("image/png", got.Firma.Mime)

	got.Nombre = "Ana María"
	got.UpdatedAt = time.Now()
	s.Require().NoError(s.store.Update(s.ctx, got))

	again, err := s.store.FindByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("Ana María", again.Nombre)
}

func (s *PostgresSuite) TestUniqueConstraintsMapToTypedErrors() {
	s.Require().NoError(s.store.Create(s.ctx, s.newUsuario("a@x.co", "1049600002", domain.RolAuxiliar)))
	s.ErrorIs(s.store.Create(s.ctx, s.newUsuario("A@x.co", "1049600003", domain.RolAuxiliar)), ErrEmailTaken)
	s.ErrorIs(s.store.Create(s.ctx, s.newUsuario("b@x.co", "1049600002", domain.RolAuxiliar)), ErrDocumentoTaken)
}

func (s *PostgresSuite) TestMandatarioWithoutFirmaRejectedByDatabase() {
	err := s.store.Create(s.ctx, s.newUsuario("m@x.co", "1049600004", domain.RolMandatario))
	s.Error(err)
}
