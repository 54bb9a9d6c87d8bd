package service

import (
	"bytes"
	"context"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	cmodels "juntas/internal/catalogo/models"
	csvc "juntas/internal/catalogo/service"
	cstore "juntas/internal/catalogo/store"
	"juntas/internal/certificados/models"
	"juntas/internal/certificados/service/mocks"
	"juntas/internal/certificados/store"
	jmodels "juntas/internal/juntas/models"
	mmodels "juntas/internal/mandatarios/models"
	umodels "juntas/internal/usuarios/models"
	"juntas/pkg/domain"
	dErrors "juntas/pkg/domain-errors"
	audit "juntas/pkg/platform/audit"
	"juntas/pkg/requestcontext"
)

var fixedNow = time.Date(2024, time.May, 2, 15, 30, 0, 0, time.UTC)

type recordingPublisher struct {
	events []audit.Event
}

func (p *recordingPublisher) Emit(_ context.Context, e audit.Event) error {
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) actions() []string {
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Action)
	}
	return out
}

type fixture struct {
	svc         *Service
	store       *store.InMemory
	juntas      *mocks.MockJuntas
	mandatarios *mocks.MockMandatarios
	usuarios    *mocks.MockUsuarios
	audit       *recordingPublisher
	cargo       int64
	ctx         context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	ctx := requestcontext.WithTime(context.Background(), fixedNow)
	ctx = requestcontext.WithUsuarioID(ctx, 5)

	catalogo := csvc.New(cstore.NewInMemory())
	cargo, err := catalogo.Create(ctx, cmodels.KindCargo, cmodels.ItemRequest{Nombre: "Fiscal"})
	require.NoError(t, err)

	f := &fixture{
		store:       store.NewInMemory(),
		juntas:      mocks.NewMockJuntas(ctrl),
		mandatarios: mocks.NewMockMandatarios(ctrl),
		usuarios:    mocks.NewMockUsuarios(ctrl),
		audit:       &recordingPublisher{},
		cargo:       cargo.ID,
		ctx:         ctx,
	}
	f.svc = New(f.store, f.juntas, f.mandatarios, catalogo, f.usuarios,
		WithAuditPublisher(f.audit), WithPublicURL("https://juntas.boyaca.gov.co"))
	return f
}

func detalle(codigo string, activo bool) *jmodels.Detalle {
	return &jmodels.Detalle{
		Junta: &jmodels.Junta{
			ID:                    12,
			RazonSocial:           "JAC Vereda El Salitre",
			NumPersoneriaJuridica: "PJ-808",
			FechaInicioPeriodo:    domain.NewFecha(2022, time.July, 1),
			FechaFinPeriodo:       domain.NewFecha(2026, time.July, 1),
			Activo:                activo,
		},
		TipoJunta:       "Junta de Acción Comunal",
		CodigoTipoJunta: codigo,
		Municipio:       "Paipa",
		Provincia:       "Tundama",
	}
}

func emisor() *umodels.Usuario {
	return &umodels.Usuario{ID: 5, Nombre: "Ana Rojas", Rol: domain.RolAuxiliar}
}

func TestEmitirJunta(t *testing.T) {
	f := newFixture(t)
	f.usuarios.EXPECT().Get(gomock.Any(), domain.UsuarioID(5)).Return(emisor(), nil)
	f.juntas.EXPECT().Detalle(gomock.Any(), domain.JuntaID(12)).Return(detalle("JAC", true), nil)

	out, err := f.svc.Emitir(f.ctx, models.EmitirRequest{Tipo: "jac", JuntaID: 12})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out.PDF, []byte("%PDF-")))

	c := out.Certificado
	assert.Equal(t, domain.JuntaID(12), c.JuntaID)
	assert.Equal(t, "Ana Rojas", c.Datos.EmitidoPor)
	assert.Equal(t, "Paipa", c.Datos.Municipio)
	assert.Equal(t, fixedNow, c.EmitidoEn)
	assert.Equal(t, "certificado-jac-jac-vereda-el-salitre.pdf", c.Filename())
	assert.Equal(t, "https://juntas.boyaca.gov.co/validar/"+c.ID.String(), f.svc.ValidarURL(c.ID))
	assert.Equal(t, []string{string(audit.EventCertificadoEmitido)}, f.audit.actions())

	stored, err := f.store.FindByID(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Datos, stored.Datos)
}

func TestEmitirJunta_Rejections(t *testing.T) {
	t.Run("tipo de junta mismatch", func(t *testing.T) {
		f := newFixture(t)
		f.usuarios.EXPECT().Get(gomock.Any(), gomock.Any()).Return(emisor(), nil)
		f.juntas.EXPECT().Detalle(gomock.Any(), gomock.Any()).Return(detalle("JAC", true), nil)
		_, err := f.svc.Emitir(f.ctx, models.EmitirRequest{Tipo: "jvc", JuntaID: 12})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("closed period", func(t *testing.T) {
		f := newFixture(t)
		f.usuarios.EXPECT().Get(gomock.Any(), gomock.Any()).Return(emisor(), nil)
		f.juntas.EXPECT().Detalle(gomock.Any(), gomock.Any()).Return(detalle("JAC", false), nil)
		_, err := f.svc.Emitir(f.ctx, models.EmitirRequest{Tipo: "jac", JuntaID: 12})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("anonymous", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Emitir(context.Background(), models.EmitirRequest{Tipo: "jac", JuntaID: 12})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("unknown tipo", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Emitir(f.ctx, models.EmitirRequest{Tipo: "otro"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestEmitirAutoresolutorio(t *testing.T) {
	f := newFixture(t)
	m := &mmodels.Mandatario{
		ID:             40,
		JuntaID:        12,
		Documento:      "1049612345",
		Nombres:        "Héctor",
		Apellidos:      "Suárez",
		Asignacion:     mmodels.Cargo(f.cargo),
		FInicioPeriodo: domain.NewFecha(2023, time.March, 1),
		FFinPeriodo:    domain.NewFecha(2026, time.July, 1),
	}
	d := detalle("JAC", true)
	f.usuarios.EXPECT().Get(gomock.Any(), gomock.Any()).Return(emisor(), nil)
	f.mandatarios.EXPECT().Activo(gomock.Any(), "1049612345").Return(m, d.Junta, nil)
	f.juntas.EXPECT().Detalle(gomock.Any(), domain.JuntaID(12)).Return(d, nil)

	out, err := f.svc.Emitir(f.ctx, models.EmitirRequest{Tipo: "autoresolutorio", Documento: "1049612345"})
	require.NoError(t, err)
	c := out.Certificado
	require.NotNil(t, c.MandatarioID)
	assert.Equal(t, domain.MandatarioID(40), *c.MandatarioID)
	assert.Equal(t, "Fiscal", c.Datos.Cargo)
	assert.Equal(t, "2023-03-01", c.Datos.FechaInicioPeriodo.String())
	assert.Equal(t, "certificado-autoresolutorio-hector-suarez.pdf", c.Filename())
}

func TestEmitirAutoresolutorio_SinMandatarioActivo(t *testing.T) {
	f := newFixture(t)
	f.usuarios.EXPECT().Get(gomock.Any(), gomock.Any()).Return(emisor(), nil)
	f.mandatarios.EXPECT().Activo(gomock.Any(), "77").
		Return(nil, nil, dErrors.New(dErrors.CodeNotFound, "no hay un mandatario activo con ese documento"))

	_, err := f.svc.Emitir(f.ctx, models.EmitirRequest{Tipo: "autoresolutorio", Documento: "77"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	assert.Empty(t, f.audit.events)
}

func TestValidar(t *testing.T) {
	f := newFixture(t)
	f.usuarios.EXPECT().Get(gomock.Any(), gomock.Any()).Return(emisor(), nil)
	f.juntas.EXPECT().Detalle(gomock.Any(), gomock.Any()).Return(detalle("JAC", true), nil)
	out, err := f.svc.Emitir(f.ctx, models.EmitirRequest{Tipo: "jac", JuntaID: 12})
	require.NoError(t, err)

	v, err := f.svc.Validar(f.ctx, out.Certificado.ID.String())
	require.NoError(t, err)
	assert.True(t, v.Valido)
	assert.Equal(t, "JAC Vereda El Salitre", v.Data.Datos.RazonSocial)

	v, err = f.svc.Validar(f.ctx, domain.NewCertificadoID().String())
	require.NoError(t, err)
	assert.False(t, v.Valido)
	assert.NotEmpty(t, v.Mensaje)

	v, err = f.svc.Validar(f.ctx, "no-es-un-uuid")
	require.NoError(t, err)
	assert.False(t, v.Valido)
	assert.Nil(t, v.Data)

	assert.Equal(t, []string{
		string(audit.EventCertificadoEmitido),
		string(audit.EventCertificadoValidado),
		string(audit.EventCertificadoRechazado),
		string(audit.EventCertificadoRechazado),
	}, f.audit.actions())
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "corto", truncate("corto", 64))

	// "ñ" occupies bytes 2 and 3; a cut at byte 3 would split it.
	got := truncate("Peña", 3)
	assert.Equal(t, "Pe", got)
	assert.True(t, utf8.ValidString(got))

	long := ""
	for len(long) < 80 {
		long += "Boyacá"
	}
	got = truncate(long, 64)
	assert.LessOrEqual(t, len(got), 64)
	assert.True(t, utf8.ValidString(got))
}
