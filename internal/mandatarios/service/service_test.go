package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cmodels "juntas/internal/catalogo/models"
	csvc "juntas/internal/catalogo/service"
	cstore "juntas/internal/catalogo/store"
	jmodels "juntas/internal/juntas/models"
	jsvc "juntas/internal/juntas/service"
	jstore "juntas/internal/juntas/store"
	lmodels "juntas/internal/lugares/models"
	lsvc "juntas/internal/lugares/service"
	lstore "juntas/internal/lugares/store"
	"juntas/internal/mandatarios/models"
	"juntas/internal/mandatarios/store"
	"juntas/pkg/domain"
	dErrors "juntas/pkg/domain-errors"
	audit "juntas/pkg/platform/audit"
	"juntas/pkg/platform/audit/publisher"
	"juntas/pkg/platform/audit/store/memory"
	"juntas/pkg/requestcontext"
)

type fixture struct {
	svc      *Service
	juntas   *jsvc.Service
	catalogo *csvc.Service
	lugares  *lsvc.Service
	tipo     int64
	lugar    int64
	audit    *memory.InMemoryStore
	junta    *jmodels.Junta
	presi    int64
	comision int64
	ctx      context.Context
}

func id64(v int64) *int64 { return &v }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := requestcontext.WithTime(context.Background(), time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC))

	catalogo := csvc.New(cstore.NewInMemory())
	tipo, err := catalogo.Create(ctx, cmodels.KindTipoJunta, cmodels.ItemRequest{Nombre: "Junta de Acción Comunal", Codigo: "JAC"})
	require.NoError(t, err)
	presi, err := catalogo.Create(ctx, cmodels.KindCargo, cmodels.ItemRequest{Nombre: "Presidente"})
	require.NoError(t, err)
	comision, err := catalogo.Create(ctx, cmodels.KindComision, cmodels.ItemRequest{Nombre: "Comisión de Convivencia"})
	require.NoError(t, err)

	lugares := lsvc.New(lstore.NewInMemory())
	boyaca, err := lugares.Create(ctx, lmodels.LugarRequest{Nombre: "Boyacá", Tipo: "Departamento"})
	require.NoError(t, err)
	ricaurte, err := lugares.Create(ctx, lmodels.LugarRequest{Nombre: "Ricaurte", Tipo: "Provincia", PadreID: id64(int64(boyaca.ID))})
	require.NoError(t, err)
	moniquira, err := lugares.Create(ctx, lmodels.LugarRequest{Nombre: "Moniquirá", Tipo: "Municipio", PadreID: id64(int64(ricaurte.ID))})
	require.NoError(t, err)

	mandatarios := store.NewInMemory()
	juntas := jsvc.New(jstore.NewInMemory(jstore.WithCascade(mandatarios)), catalogo, lugares)
	junta, err := juntas.Create(ctx, jmodels.JuntaRequest{
		RazonSocial:           "JAC Vereda Pueblo Viejo",
		NumPersoneriaJuridica: "PJ-500",
		FechaCreacion:         domain.NewFecha(1978, time.April, 12),
		Zona:                  "rural",
		FechaInicioPeriodo:    domain.NewFecha(2022, time.July, 1),
		TipoJuntaID:           tipo.ID,
		LugarID:               int64(moniquira.ID),
	})
	require.NoError(t, err)

	auditStore := memory.NewInMemoryStore()
	pub := publisher.NewPublisher(auditStore)
	t.Cleanup(pub.Close)

	return &fixture{
		svc:      New(mandatarios, juntas, catalogo, lugares, WithAuditPublisher(pub)),
		juntas:   juntas,
		catalogo: catalogo,
		lugares:  lugares,
		tipo:     tipo.ID,
		lugar:    int64(moniquira.ID),
		audit:    auditStore,
		junta:    junta,
		presi:    presi.ID,
		comision: comision.ID,
		ctx:      ctx,
	}
}

func (f *fixture) request(documento string) models.MandatarioRequest {
	return models.MandatarioRequest{
		JuntaID:         int64(f.junta.ID),
		Documento:       documento,
		Nombres:         "Jorge Eliécer",
		Apellidos:       "Sanabria",
		Genero:          "Masculino",
		FechaNacimiento: domain.NewFecha(1969, time.January, 15),
	}
}

func (f *fixture) actions(t *testing.T) []string {
	t.Helper()
	events, err := f.audit.ListRecent(context.Background(), 100)
	require.NoError(t, err)
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Action)
	}
	return out
}

func TestCreate(t *testing.T) {
	f := newFixture(t)

	t.Run("defaults the period to the junta's", func(t *testing.T) {
		req := f.request("4123567")
		req.CargoID = id64(f.presi)
		m, err := f.svc.Create(f.ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "2022-07-01", m.FInicioPeriodo.String())
		assert.Equal(t, "2026-07-01", m.FFinPeriodo.String())
		assert.Equal(t, models.AsignadoCargo, m.Estado())
		assert.Contains(t, f.actions(t), string(audit.EventMandatarioCreado))
	})

	t.Run("same documento in the same junta is a conflict", func(t *testing.T) {
		_, err := f.svc.Create(f.ctx, f.request("4123567"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})

	t.Run("period outside the junta's", func(t *testing.T) {
		req := f.request("4123568")
		req.FInicioPeriodo = domain.NewFecha(2022, time.January, 1)
		_, err := f.svc.Create(f.ctx, req)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		req.FInicioPeriodo = domain.NewFecha(2023, time.January, 1)
		req.FFinPeriodo = domain.NewFecha(2027, time.January, 1)
		_, err = f.svc.Create(f.ctx, req)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("too young at the start of the period", func(t *testing.T) {
		req := f.request("4123569")
		req.FechaNacimiento = domain.NewFecha(2008, time.July, 2)
		_, err := f.svc.Create(f.ctx, req)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		req.FInicioPeriodo = domain.NewFecha(2022, time.July, 2)
		m, err := f.svc.Create(f.ctx, req)
		require.NoError(t, err)
		assert.Equal(t, models.EdadMinima, m.Edad(m.FInicioPeriodo))
	})

	t.Run("both cargo and comision", func(t *testing.T) {
		req := f.request("4123570")
		req.CargoID, req.ComisionID = id64(f.presi), id64(f.comision)
		_, err := f.svc.Create(f.ctx, req)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("unknown references", func(t *testing.T) {
		req := f.request("4123571")
		req.CargoID = id64(999)
		_, err := f.svc.Create(f.ctx, req)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		req = f.request("4123571")
		req.JuntaID = 999
		_, err = f.svc.Create(f.ctx, req)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("closed junta", func(t *testing.T) {
		next, err := f.juntas.CambiarPeriodo(f.ctx, f.junta.ID, jmodels.CambioPeriodoRequest{
			FechaInicioPeriodo: domain.NewFecha(2026, time.July, 2),
		})
		require.NoError(t, err)
		_, err = f.svc.Create(f.ctx, f.request("4123572"))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

		req := f.request("4123572")
		req.JuntaID = int64(next.ID)
		m, err := f.svc.Create(f.ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "2030-07-02", m.FFinPeriodo.String())
	})
}

func TestAsignar(t *testing.T) {
	f := newFixture(t)
	req := f.request("7012345")
	req.CargoID = id64(f.presi)
	m, err := f.svc.Create(f.ctx, req)
	require.NoError(t, err)

	got, err := f.svc.Asignar(f.ctx, m.ID, models.AsignacionRequest{ComisionID: id64(f.comision)})
	require.NoError(t, err)
	assert.Equal(t, models.AsignadoComision, got.Estado())
	assert.Nil(t, got.Asignacion.CargoID())

	got, err = f.svc.Asignar(f.ctx, m.ID, models.AsignacionRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.SinAsignar, got.Estado())

	_, err = f.svc.Asignar(f.ctx, m.ID, models.AsignacionRequest{CargoID: id64(f.presi), ComisionID: id64(f.comision)})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = f.svc.Asignar(f.ctx, 999, models.AsignacionRequest{})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	m, err := f.svc.Create(f.ctx, f.request("7012346"))
	require.NoError(t, err)

	req := f.request("7012346")
	req.Telefono = "3201234567"
	req.FInicioPeriodo = domain.NewFecha(2023, time.January, 10)
	updated, err := f.svc.Update(f.ctx, m.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "3201234567", updated.Telefono)
	assert.Equal(t, "2023-01-10", updated.FInicioPeriodo.String())
	assert.Equal(t, "2026-07-01", updated.FFinPeriodo.String())

	req.JuntaID = 77
	_, err = f.svc.Update(f.ctx, m.ID, req)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestClosedPeriodIsReadOnly(t *testing.T) {
	f := newFixture(t)
	req := f.request("7012347")
	req.CargoID = id64(f.presi)
	m, err := f.svc.Create(f.ctx, req)
	require.NoError(t, err)

	_, err = f.juntas.CambiarPeriodo(f.ctx, f.junta.ID, jmodels.CambioPeriodoRequest{
		FechaInicioPeriodo: domain.NewFecha(2026, time.July, 2),
	})
	require.NoError(t, err)

	req.Telefono = "3209876543"
	_, err = f.svc.Update(f.ctx, m.ID, req)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict), "got %v", err)

	_, err = f.svc.Asignar(f.ctx, m.ID, models.AsignacionRequest{ComisionID: id64(f.comision)})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict), "got %v", err)

	got, err := f.svc.Get(f.ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Telefono)
	assert.Equal(t, models.AsignadoCargo, got.Estado())
}

func TestBuscar(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.Buscar(f.ctx, "9988776", f.junta.ID)
	require.NoError(t, err)
	assert.False(t, b.Encontrado)
	assert.False(t, b.YaEsMiembro)

	m, err := f.svc.Create(f.ctx, f.request("9988776"))
	require.NoError(t, err)

	b, err = f.svc.Buscar(f.ctx, "9988776", f.junta.ID)
	require.NoError(t, err)
	assert.True(t, b.Encontrado)
	assert.True(t, b.YaEsMiembro)
	assert.Equal(t, m.ID, b.Mandatario.ID)

	b, err = f.svc.Buscar(f.ctx, "9988776", 0)
	require.NoError(t, err)
	assert.True(t, b.Encontrado)
	assert.False(t, b.YaEsMiembro)

	_, err = f.svc.Buscar(f.ctx, "1", 0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestActivo(t *testing.T) {
	f := newFixture(t)
	m, err := f.svc.Create(f.ctx, f.request("5566778"))
	require.NoError(t, err)

	got, junta, err := f.svc.Activo(f.ctx, "5566778")
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
	assert.Equal(t, f.junta.ID, junta.ID)

	_, err = f.juntas.CambiarPeriodo(f.ctx, f.junta.ID, jmodels.CambioPeriodoRequest{
		FechaInicioPeriodo: domain.NewFecha(2026, time.July, 2),
	})
	require.NoError(t, err)
	_, _, err = f.svc.Activo(f.ctx, "5566778")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	m, err := f.svc.Create(f.ctx, f.request("3344556"))
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(f.ctx, m.ID))
	_, err = f.svc.Get(f.ctx, m.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	assert.Contains(t, f.actions(t), string(audit.EventMandatarioEliminado))

	assert.True(t, dErrors.HasCode(f.svc.Delete(f.ctx, m.ID), dErrors.CodeNotFound))
}

func (f *fixture) otraJunta(t *testing.T, personeria string) *jmodels.Junta {
	t.Helper()
	j, err := f.juntas.Create(f.ctx, jmodels.JuntaRequest{
		RazonSocial:           "JAC Barrio Centro",
		NumPersoneriaJuridica: personeria,
		FechaCreacion:         domain.NewFecha(1985, time.June, 3),
		Zona:                  "urbana",
		FechaInicioPeriodo:    domain.NewFecha(2022, time.July, 1),
		TipoJuntaID:           f.tipo,
		LugarID:               f.lugar,
	})
	require.NoError(t, err)
	return j
}

func TestDeletingJuntaDropsItsMandatarios(t *testing.T) {
	f := newFixture(t)
	otra := f.otraJunta(t, "PJ-501")

	_, err := f.svc.Create(f.ctx, f.request("7001234"))
	require.NoError(t, err)
	req := f.request("7001234")
	req.JuntaID = int64(otra.ID)
	enOtra, err := f.svc.Create(f.ctx, req)
	require.NoError(t, err)

	require.NoError(t, f.juntas.Delete(f.ctx, f.junta.ID))

	left, err := f.svc.List(f.ctx, models.Filter{JuntaID: f.junta.ID})
	require.NoError(t, err)
	assert.Empty(t, left)

	m, j, err := f.svc.Activo(f.ctx, "7001234")
	require.NoError(t, err)
	assert.Equal(t, enOtra.ID, m.ID)
	assert.Equal(t, otra.ID, j.ID)
}

func TestActivoSkipsMembershipsOfMissingJuntas(t *testing.T) {
	f := newFixture(t)
	mandatarios := store.NewInMemory()
	svc := New(mandatarios, f.juntas, f.catalogo, f.lugares)

	huerfano := &models.Mandatario{JuntaID: 999, Documento: "7005678", Nombres: "Ana", Apellidos: "Gil", Genero: models.GeneroFemenino}
	require.NoError(t, mandatarios.Create(f.ctx, huerfano))
	vigente := &models.Mandatario{JuntaID: f.junta.ID, Documento: "7005678", Nombres: "Ana", Apellidos: "Gil", Genero: models.GeneroFemenino}
	require.NoError(t, mandatarios.Create(f.ctx, vigente))

	m, j, err := svc.Activo(f.ctx, "7005678")
	require.NoError(t, err)
	assert.Equal(t, vigente.ID, m.ID)
	assert.Equal(t, f.junta.ID, j.ID)
}
