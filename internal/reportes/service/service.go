// Package service aggregates juntas and mandatarios into reports.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	cmodels "juntas/internal/catalogo/models"
	jmodels "juntas/internal/juntas/models"
	lmodels "juntas/internal/lugares/models"
	mmodels "juntas/internal/mandatarios/models"
	"juntas/internal/reportes/export"
	"juntas/internal/reportes/models"
	"juntas/pkg/domain"
	dErrors "juntas/pkg/domain-errors"
	audit "juntas/pkg/platform/audit"
	"juntas/pkg/requestcontext"
)

var tracer = otel.Tracer("juntas/internal/reportes/service")

// loadTimeout bounds the concurrent reads behind one report.
const loadTimeout = 10 * time.Second

const sinAsignar = "Sin asignar"

type Juntas interface {
	List(ctx context.Context, f jmodels.Filter) ([]*jmodels.Junta, error)
}

type Mandatarios interface {
	List(ctx context.Context, f mmodels.Filter) ([]*mmodels.Mandatario, error)
}

type Catalogo interface {
	List(ctx context.Context, kind cmodels.Kind) ([]*cmodels.Item, error)
}

type Lugares interface {
	List(ctx context.Context, f lmodels.Filter) ([]*lmodels.Lugar, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	juntas         Juntas
	mandatarios    Mandatarios
	catalogo       Catalogo
	lugares        Lugares
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func New(juntas Juntas, mandatarios Mandatarios, catalogo Catalogo, lugares Lugares, opts ...Option) *Service {
	s := &Service{
		juntas:      juntas,
		mandatarios: mandatarios,
		catalogo:    catalogo,
		lugares:     lugares,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// dataset is the filtered snapshot every report is computed from.
type dataset struct {
	juntas      []*jmodels.Junta
	mandatarios []*mmodels.Mandatario
	lugares     map[domain.LugarID]*lmodels.Lugar
	cargos      map[int64]string
	comisiones  map[int64]string
	tipos       map[int64]string
	today       domain.Fecha
}

// load reads juntas, mandatarios and lookups in parallel, then applies the
// provincia filter and keeps only mandatarios of the selected juntas.
func (s *Service) load(ctx context.Context, f models.Filter) (*dataset, error) {
	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	d := &dataset{today: domain.FechaOf(requestcontext.Now(ctx))}
	g, ctx := errgroup.WithContext(ctx)

	var (
		juntas      []*jmodels.Junta
		mandatarios []*mmodels.Mandatario
		lugares     []*lmodels.Lugar
	)
	g.Go(func() error {
		var err error
		juntas, err = s.juntas.List(ctx, jmodels.Filter{Activo: f.Activo, LugarID: f.MunicipioID, TipoJuntaID: f.TipoJuntaID})
		return err
	})
	g.Go(func() error {
		var err error
		mandatarios, err = s.mandatarios.List(ctx, mmodels.Filter{})
		return err
	})
	g.Go(func() error {
		var err error
		lugares, err = s.lugares.List(ctx, lmodels.Filter{})
		return err
	})
	g.Go(func() (err error) {
		d.cargos, err = s.nombres(ctx, cmodels.KindCargo)
		return err
	})
	g.Go(func() (err error) {
		d.comisiones, err = s.nombres(ctx, cmodels.KindComision)
		return err
	})
	g.Go(func() (err error) {
		d.tipos, err = s.nombres(ctx, cmodels.KindTipoJunta)
		return err
	})
	if err := g.Wait(); err != nil {
		if _, ok := dErrors.As(err); ok {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudieron cargar los datos del reporte")
	}

	d.lugares = make(map[domain.LugarID]*lmodels.Lugar, len(lugares))
	for _, l := range lugares {
		d.lugares[l.ID] = l
	}

	selected := make(map[domain.JuntaID]bool, len(juntas))
	for _, j := range juntas {
		if f.ProvinciaID != 0 && d.provinciaID(j) != f.ProvinciaID {
			continue
		}
		d.juntas = append(d.juntas, j)
		selected[j.ID] = true
	}
	for _, m := range mandatarios {
		if selected[m.JuntaID] {
			d.mandatarios = append(d.mandatarios, m)
		}
	}
	return d, nil
}

func (s *Service) nombres(ctx context.Context, kind cmodels.Kind) (map[int64]string, error) {
	items, err := s.catalogo.List(ctx, kind)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]string, len(items))
	for _, it := range items {
		out[it.ID] = it.Nombre
	}
	return out, nil
}

func (d *dataset) provinciaID(j *jmodels.Junta) domain.LugarID {
	if m, ok := d.lugares[j.LugarID]; ok && m.PadreID != nil {
		return *m.PadreID
	}
	return 0
}

func (d *dataset) municipio(j *jmodels.Junta) string {
	if m, ok := d.lugares[j.LugarID]; ok {
		return m.Nombre
	}
	return ""
}

func (d *dataset) provincia(j *jmodels.Junta) string {
	if p, ok := d.lugares[d.provinciaID(j)]; ok {
		return p.Nombre
	}
	return ""
}

// Resumen computes every aggregate over the filtered data. Juntas are
// counted by provincia, municipio and estado; mandatarios by the rest.
func (s *Service) Resumen(ctx context.Context, f models.Filter) (*models.Resumen, error) {
	ctx, span := tracer.Start(ctx, "reportes.Resumen")
	defer span.End()

	d, err := s.load(ctx, f)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	r := &models.Resumen{TotalJuntas: len(d.juntas), TotalMandatarios: len(d.mandatarios)}

	var g errgroup.Group
	g.Go(func() error { r.Edad = d.porEdad(); return nil })
	g.Go(func() error { r.Genero = d.porGenero(); return nil })
	g.Go(func() error { r.Comision = d.porAsignacion(mmodels.AsignadoComision, d.comisiones); return nil })
	g.Go(func() error { r.Cargo = d.porAsignacion(mmodels.AsignadoCargo, d.cargos); return nil })
	g.Go(func() error { r.Provincia = d.porJunta(d.provincia); return nil })
	g.Go(func() error { r.Municipio = d.porJunta(d.municipio); return nil })
	g.Go(func() error { r.Estado = d.porEstado(); return nil })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("reporte.juntas", r.TotalJuntas), attribute.Int("reporte.mandatarios", r.TotalMandatarios))
	return r, nil
}

func (d *dataset) porEdad() []models.Conteo {
	counts := map[string]int{}
	for _, m := range d.mandatarios {
		if rango := models.RangoEdad(m.Edad(d.today)); rango != "" {
			counts[rango]++
		}
	}
	return ordered(models.RangosEdad(), counts)
}

func (d *dataset) porGenero() []models.Conteo {
	counts := map[string]int{}
	labels := make([]string, 0, 3)
	for _, g := range mmodels.Generos() {
		labels = append(labels, string(g))
	}
	for _, m := range d.mandatarios {
		counts[string(m.Genero)]++
	}
	return ordered(labels, counts)
}

// porAsignacion counts mandatarios per cargo or comisión. Every catalog
// entry appears, and unassigned mandatarios are grouped last.
func (d *dataset) porAsignacion(estado mmodels.EstadoAsignacion, nombres map[int64]string) []models.Conteo {
	counts := map[string]int{}
	for _, nombre := range nombres {
		counts[nombre] += 0
	}
	sinAsignacion := 0
	for _, m := range d.mandatarios {
		switch m.Estado() {
		case estado:
			counts[nombreOr(nombres, m.Asignacion.ID)]++
		case mmodels.SinAsignar:
			sinAsignacion++
		}
	}
	out := sorted(counts)
	if sinAsignacion > 0 {
		out = append(out, models.Conteo{Etiqueta: sinAsignar, Total: sinAsignacion})
	}
	return out
}

func (d *dataset) porJunta(label func(*jmodels.Junta) string) []models.Conteo {
	counts := map[string]int{}
	for _, j := range d.juntas {
		l := label(j)
		if l == "" {
			l = "Sin ubicación"
		}
		counts[l]++
	}
	return sorted(counts)
}

func (d *dataset) porEstado() []models.Conteo {
	counts := map[string]int{}
	for _, j := range d.juntas {
		counts[string(j.Estado())]++
	}
	return ordered([]string{string(jmodels.EstadoActivo), string(jmodels.EstadoInactivo)}, counts)
}

func ordered(labels []string, counts map[string]int) []models.Conteo {
	out := make([]models.Conteo, 0, len(labels))
	for _, l := range labels {
		out = append(out, models.Conteo{Etiqueta: l, Total: counts[l]})
	}
	return out
}

// sorted orders by descending total, then label.
func sorted(counts map[string]int) []models.Conteo {
	out := make([]models.Conteo, 0, len(counts))
	for l, n := range counts {
		out = append(out, models.Conteo{Etiqueta: l, Total: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Etiqueta < out[j].Etiqueta
	})
	return out
}

func nombreOr(nombres map[int64]string, id int64) string {
	if n, ok := nombres[id]; ok {
		return n
	}
	return "#" + strconv.FormatInt(id, 10)
}

// Tabla builds the export table for tipo.
func (s *Service) Tabla(ctx context.Context, tipo models.Tipo, f models.Filter) (*models.Tabla, error) {
	if tipo.IsListado() {
		d, err := s.load(ctx, f)
		if err != nil {
			return nil, err
		}
		if tipo == models.TipoJuntas {
			return d.tablaJuntas(), nil
		}
		return d.tablaMandatarios(), nil
	}
	r, err := s.Resumen(ctx, f)
	if err != nil {
		return nil, err
	}
	t := &models.Tabla{Titulo: tipo.Titulo(), Columnas: []string{etiquetaColumna(tipo), "Total"}}
	for _, c := range r.Conteos(tipo) {
		t.Filas = append(t.Filas, []string{c.Etiqueta, strconv.Itoa(c.Total)})
	}
	return t, nil
}

func etiquetaColumna(tipo models.Tipo) string {
	switch tipo {
	case models.TipoEdad:
		return "Rango de edad"
	case models.TipoGenero:
		return "Género"
	case models.TipoComision:
		return "Comisión"
	case models.TipoCargo:
		return "Cargo"
	case models.TipoProvincia:
		return "Provincia"
	case models.TipoMunicipio:
		return "Municipio"
	}
	return "Estado"
}

func (d *dataset) tablaJuntas() *models.Tabla {
	t := &models.Tabla{
		Titulo: models.TipoJuntas.Titulo(),
		Columnas: []string{"Razón social", "Personería jurídica", "Tipo", "Provincia", "Municipio",
			"Zona", "Inicio periodo", "Fin periodo", "Estado"},
	}
	juntas := append([]*jmodels.Junta(nil), d.juntas...)
	sort.Slice(juntas, func(i, j int) bool { return juntas[i].RazonSocial < juntas[j].RazonSocial })
	for _, j := range juntas {
		t.Filas = append(t.Filas, []string{
			j.RazonSocial, j.NumPersoneriaJuridica, nombreOr(d.tipos, int64(j.TipoJuntaID)),
			d.provincia(j), d.municipio(j), string(j.Zona),
			j.FechaInicioPeriodo.String(), j.FechaFinPeriodo.String(), string(j.Estado()),
		})
	}
	return t
}

func (d *dataset) tablaMandatarios() *models.Tabla {
	t := &models.Tabla{
		Titulo:   models.TipoMandatarios.Titulo(),
		Columnas: []string{"Documento", "Nombre", "Género", "Edad", "Junta", "Cargo / comisión", "Inicio periodo", "Fin periodo"},
	}
	razon := make(map[domain.JuntaID]string, len(d.juntas))
	for _, j := range d.juntas {
		razon[j.ID] = j.RazonSocial
	}
	for _, m := range d.mandatarios {
		t.Filas = append(t.Filas, []string{
			m.Documento, m.NombreCompleto(), string(m.Genero), strconv.Itoa(m.Edad(d.today)),
			razon[m.JuntaID], d.asignacion(m), m.FInicioPeriodo.String(), m.FFinPeriodo.String(),
		})
	}
	return t
}

func (d *dataset) asignacion(m *mmodels.Mandatario) string {
	switch m.Estado() {
	case mmodels.AsignadoCargo:
		return nombreOr(d.cargos, m.Asignacion.ID)
	case mmodels.AsignadoComision:
		return "Comisión " + nombreOr(d.comisiones, m.Asignacion.ID)
	}
	return sinAsignar
}

// Export renders tipo in formato and records the download.
func (s *Service) Export(ctx context.Context, tipo models.Tipo, formato models.Formato, f models.Filter) (*models.Archivo, error) {
	ctx, span := tracer.Start(ctx, "reportes.Export")
	defer span.End()
	span.SetAttributes(attribute.String("reporte.tipo", string(tipo)), attribute.String("reporte.formato", string(formato)))

	t, err := s.Tabla(ctx, tipo, f)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	body, err := export.Render(t, formato)
	if err != nil {
		recordError(span, err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo generar el reporte")
	}
	s.emit(ctx, tipo, formato, len(t.Filas))
	return &models.Archivo{
		Nombre:      fmt.Sprintf("reporte-%s-%s.%s", tipo, requestcontext.Now(ctx).Format("20060102"), formato),
		ContentType: formato.ContentType(),
		Body:        body,
	}, nil
}

// emit logs failures instead of returning them.
func (s *Service) emit(ctx context.Context, tipo models.Tipo, formato models.Formato, filas int) {
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:  string(audit.EventReporteExportado),
		Subject: "reportes/" + string(tipo),
		Detail:  strings.ToUpper(string(formato)) + ", " + strconv.Itoa(filas) + " filas",
	})
	if err != nil {
		s.logger.WarnContext(ctx, "export audit dropped", "tipo", tipo, "error", err)
	}
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
