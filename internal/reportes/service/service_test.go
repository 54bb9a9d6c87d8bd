package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	cmodels "juntas/internal/catalogo/models"
	jmodels "juntas/internal/juntas/models"
	lmodels "juntas/internal/lugares/models"
	mmodels "juntas/internal/mandatarios/models"
	"juntas/internal/reportes/models"
	"juntas/pkg/domain"
	dErrors "juntas/pkg/domain-errors"
	audit "juntas/pkg/platform/audit"
	"juntas/pkg/requestcontext"
)

type fakeJuntas struct {
	juntas []*jmodels.Junta
	err    error
}

func (f *fakeJuntas) List(_ context.Context, filter jmodels.Filter) ([]*jmodels.Junta, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*jmodels.Junta
	for _, j := range f.juntas {
		if filter.Activo != nil && j.Activo != *filter.Activo {
			continue
		}
		if filter.LugarID != 0 && j.LugarID != filter.LugarID {
			continue
		}
		if filter.TipoJuntaID != 0 && j.TipoJuntaID != filter.TipoJuntaID {
			continue
		}
		out = append(out, j)
	}
	return out, nil
}

type fakeMandatarios []*mmodels.Mandatario

func (f fakeMandatarios) List(context.Context, mmodels.Filter) ([]*mmodels.Mandatario, error) {
	return f, nil
}

type fakeCatalogo map[cmodels.Kind][]*cmodels.Item

func (f fakeCatalogo) List(_ context.Context, kind cmodels.Kind) ([]*cmodels.Item, error) {
	return f[kind], nil
}

type fakeLugares []*lmodels.Lugar

func (f fakeLugares) List(context.Context, lmodels.Filter) ([]*lmodels.Lugar, error) {
	return f, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []audit.Event
}

func (p *recordingPublisher) Emit(_ context.Context, e audit.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func lugarID(v domain.LugarID) *domain.LugarID { return &v }

func boolPtr(v bool) *bool { return &v }

type ServiceSuite struct {
	suite.Suite
	ctx       context.Context
	juntas    *fakeJuntas
	publisher *recordingPublisher
	svc       *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2024, time.May, 2, 10, 0, 0, 0, time.UTC))

	lugares := fakeLugares{
		{ID: 1, Nombre: "Boyacá", Tipo: lmodels.TipoDepartamento},
		{ID: 2, Nombre: "Ricaurte", Tipo: lmodels.TipoProvincia, PadreID: lugarID(1)},
		{ID: 3, Nombre: "Centro", Tipo: lmodels.TipoProvincia, PadreID: lugarID(1)},
		{ID: 4, Nombre: "Moniquirá", Tipo: lmodels.TipoMunicipio, PadreID: lugarID(2)},
		{ID: 5, Nombre: "Tunja", Tipo: lmodels.TipoMunicipio, PadreID: lugarID(3)},
	}
	catalogo := fakeCatalogo{
		cmodels.KindCargo:     {{ID: 1, Nombre: "Presidente"}, {ID: 2, Nombre: "Fiscal"}},
		cmodels.KindComision:  {{ID: 10, Nombre: "Salud"}},
		cmodels.KindTipoJunta: {{ID: 7, Nombre: "Junta de Acción Comunal", Codigo: "JAC"}},
	}
	inicio := domain.NewFecha(2022, time.July, 1)
	s.juntas = &fakeJuntas{juntas: []*jmodels.Junta{
		{ID: 1, RazonSocial: "JAC Vereda Santa Lucía", NumPersoneriaJuridica: "PJ-1", TipoJuntaID: 7, LugarID: 4, Activo: true,
			Zona: jmodels.ZonaRural, FechaInicioPeriodo: inicio, FechaFinPeriodo: jmodels.FinPeriodo(inicio)},
		{ID: 2, RazonSocial: "JAC Barrio Centro", NumPersoneriaJuridica: "PJ-2", TipoJuntaID: 7, LugarID: 5, Activo: true},
		{ID: 3, RazonSocial: "JAC Barrio Centro 2018", NumPersoneriaJuridica: "PJ-3", TipoJuntaID: 7, LugarID: 5},
	}}
	mandatarios := fakeMandatarios{
		{ID: 1, JuntaID: 1, Documento: "1001", Nombres: "Ana", Apellidos: "Rojas", Genero: mmodels.GeneroFemenino,
			FechaNacimiento: domain.NewFecha(1990, time.March, 1), Asignacion: mmodels.Cargo(1)},
		{ID: 2, JuntaID: 1, Documento: "1002", Nombres: "Luis", Apellidos: "Páez", Genero: mmodels.GeneroMasculino,
			FechaNacimiento: domain.NewFecha(2008, time.January, 1), Asignacion: mmodels.Comision(10)},
		{ID: 3, JuntaID: 2, Documento: "1003", Nombres: "Jorge", Apellidos: "Niño", Genero: mmodels.GeneroMasculino,
			FechaNacimiento: domain.NewFecha(1950, time.June, 9)},
		{ID: 4, JuntaID: 3, Documento: "1004", Nombres: "Sam", Apellidos: "Gil", Genero: mmodels.GeneroOtro,
			FechaNacimiento: domain.NewFecha(2000, time.May, 3), Asignacion: mmodels.Cargo(2)},
	}
	s.publisher = &recordingPublisher{}
	s.svc = New(s.juntas, mandatarios, catalogo, lugares, WithAuditPublisher(s.publisher))
}

func conteos(pairs ...any) []models.Conteo {
	out := make([]models.Conteo, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, models.Conteo{Etiqueta: pairs[i].(string), Total: pairs[i+1].(int)})
	}
	return out
}

func (s *ServiceSuite) TestResumen() {
	r, err := s.svc.Resumen(s.ctx, models.Filter{})
	s.Require().NoError(err)

	s.Equal(3, r.TotalJuntas)
	s.Equal(4, r.TotalMandatarios)
	s.Equal(conteos("14-17", 1, "18-28", 1, "29-59", 1, "60+", 1), r.Edad)
	s.Equal(conteos("Masculino", 2, "Femenino", 1, "Otro", 1), r.Genero)
	s.Equal(conteos("Fiscal", 1, "Presidente", 1, "Sin asignar", 1), r.Cargo)
	s.Equal(conteos("Salud", 1, "Sin asignar", 1), r.Comision)
	s.Equal(conteos("Centro", 2, "Ricaurte", 1), r.Provincia)
	s.Equal(conteos("Tunja", 2, "Moniquirá", 1), r.Municipio)
	s.Equal(conteos("activo", 2, "inactivo", 1), r.Estado)
}

func (s *ServiceSuite) TestResumen_Filters() {
	s.Run("provincia", func() {
		r, err := s.svc.Resumen(s.ctx, models.Filter{ProvinciaID: 2})
		s.Require().NoError(err)
		s.Equal(1, r.TotalJuntas)
		s.Equal(2, r.TotalMandatarios)
		s.Equal(conteos("Ricaurte", 1), r.Provincia)
	})

	s.Run("activo", func() {
		r, err := s.svc.Resumen(s.ctx, models.Filter{Activo: boolPtr(true)})
		s.Require().NoError(err)
		s.Equal(2, r.TotalJuntas)
		s.Equal(3, r.TotalMandatarios)
		s.Equal(conteos("activo", 2, "inactivo", 0), r.Estado)
	})

	s.Run("municipio and tipo", func() {
		r, err := s.svc.Resumen(s.ctx, models.Filter{MunicipioID: 5, TipoJuntaID: 7})
		s.Require().NoError(err)
		s.Equal(2, r.TotalJuntas)
		s.Equal(conteos("Fiscal", 1, "Presidente", 0, "Sin asignar", 1), r.Cargo)
	})
}

func (s *ServiceSuite) TestResumen_LoadFailure() {
	s.juntas.err = errors.New("connection reset")
	_, err := s.svc.Resumen(s.ctx, models.Filter{})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ServiceSuite) TestTabla_Listados() {
	t, err := s.svc.Tabla(s.ctx, models.TipoJuntas, models.Filter{})
	s.Require().NoError(err)
	s.Require().Len(t.Filas, 3)
	s.Equal([]string{"JAC Barrio Centro", "PJ-2", "Junta de Acción Comunal", "Centro", "Tunja", "", "", "", "activo"}, t.Filas[0])
	s.Equal("2026-07-01", t.Filas[2][7])

	t, err = s.svc.Tabla(s.ctx, models.TipoMandatarios, models.Filter{ProvinciaID: 2})
	s.Require().NoError(err)
	s.Require().Len(t.Filas, 2)
	s.Equal([]string{"1001", "Ana Rojas", "Femenino", "34", "JAC Vereda Santa Lucía", "Presidente"}, t.Filas[0][:6])
	s.Equal("Comisión Salud", t.Filas[1][5])
	s.Equal("16", t.Filas[1][3])
}

func (s *ServiceSuite) TestExport() {
	a, err := s.svc.Export(s.ctx, models.TipoGenero, models.FormatoCSV, models.Filter{})
	s.Require().NoError(err)
	s.Equal("reporte-genero-20240502.csv", a.Nombre)
	s.Equal("text/csv; charset=utf-8", a.ContentType)
	body := string(a.Body)
	s.Contains(body, "Género,Total")
	s.Contains(body, "Masculino,2")

	s.Require().Len(s.publisher.events, 1)
	e := s.publisher.events[0]
	s.Equal(string(audit.EventReporteExportado), e.Action)
	s.Equal("reportes/genero", e.Subject)
	s.Equal("CSV, 3 filas", e.Detail)
}

func (s *ServiceSuite) TestExport_EveryFormat() {
	for _, f := range []models.Formato{models.FormatoXLSX, models.FormatoRTF, models.FormatoPDF} {
		a, err := s.svc.Export(s.ctx, models.TipoMandatarios, f, models.Filter{})
		s.Require().NoError(err, f)
		s.NotEmpty(a.Body)
		s.True(strings.HasSuffix(a.Nombre, "."+string(f)))
	}
}

func TestSorted(t *testing.T) {
	out := sorted(map[string]int{"b": 2, "a": 2, "c": 5})
	require.Len(t, out, 3)
	assert.Equal(t, "c", out[0].Etiqueta)
	assert.Equal(t, "a", out[1].Etiqueta)
	assert.Equal(t, "b", out[2].Etiqueta)
}
