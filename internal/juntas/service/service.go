package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	cmodels "juntas/internal/catalogo/models"
	"juntas/internal/juntas/metrics"
	"juntas/internal/juntas/models"
	"juntas/internal/juntas/store"
	lmodels "juntas/internal/lugares/models"
	"juntas/internal/platform/database"
	"juntas/pkg/domain"
	dErrors "juntas/pkg/domain-errors"
	audit "juntas/pkg/platform/audit"
	"juntas/pkg/requestcontext"
)

var tracer = otel.Tracer("juntas/internal/juntas/service")

// maxPeriodos bounds history walks over junta_anterior_id.
const maxPeriodos = 100

type Store interface {
	List(ctx context.Context, f models.Filter) ([]*models.Junta, error)
	FindByID(ctx context.Context, id domain.JuntaID) (*models.Junta, error)
	FindActivaByPersoneria(ctx context.Context, num string) (*models.Junta, error)
	FindSucesora(ctx context.Context, id domain.JuntaID) (*models.Junta, error)
	Create(ctx context.Context, j *models.Junta) error
	Update(ctx context.Context, j *models.Junta) error
	Delete(ctx context.Context, id domain.JuntaID) error
}

// Catalogo resolves tipos de junta and instituciones.
type Catalogo interface {
	Get(ctx context.Context, kind cmodels.Kind, id int64) (*cmodels.Item, error)
}

type Lugares interface {
	Get(ctx context.Context, id domain.LugarID) (*lmodels.Lugar, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service manages juntas and their four-year periods.
type Service struct {
	store          Store
	catalogo       Catalogo
	lugares        Lugares
	tx             database.TxRunner
	metrics        *metrics.Metrics
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

func WithTx(tx database.TxRunner) Option {
	return func(s *Service) { s.tx = tx }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(st Store, catalogo Catalogo, lugares Lugares, opts ...Option) *Service {
	s := &Service{
		store:    st,
		catalogo: catalogo,
		lugares:  lugares,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = database.NewMemoryTx()
	}
	return s
}

func (s *Service) List(ctx context.Context, f models.Filter) ([]*models.Junta, error) {
	out, err := s.store.List(ctx, f)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo listar juntas")
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id domain.JuntaID) (*models.Junta, error) {
	j, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapErr(err)
	}
	return j, nil
}

// Detalle returns the junta with the names of its tipo, institución,
// municipio and provincia.
func (s *Service) Detalle(ctx context.Context, id domain.JuntaID) (*models.Detalle, error) {
	j, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &models.Detalle{Junta: j, Estado: j.Estado()}

	tipo, err := s.catalogo.Get(ctx, cmodels.KindTipoJunta, int64(j.TipoJuntaID))
	if err != nil {
		return nil, err
	}
	d.TipoJunta, d.CodigoTipoJunta = tipo.Nombre, tipo.Codigo

	if j.InstitucionID != nil {
		inst, err := s.catalogo.Get(ctx, cmodels.KindInstitucion, int64(*j.InstitucionID))
		if err != nil {
			return nil, err
		}
		d.Institucion = inst.Nombre
	}

	municipio, err := s.lugares.Get(ctx, j.LugarID)
	if err != nil {
		return nil, err
	}
	d.Municipio = municipio.Nombre
	if municipio.PadreID != nil {
		provincia, err := s.lugares.Get(ctx, *municipio.PadreID)
		if err != nil {
			return nil, err
		}
		d.Provincia = provincia.Nombre
	}
	return d, nil
}

func (s *Service) Create(ctx context.Context, req models.JuntaRequest) (*models.Junta, error) {
	ctx, span := tracer.Start(ctx, "juntas.Create")
	defer span.End()

	req.Normalize()
	zona, err := req.Validate()
	if err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, &req); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	j := &models.Junta{Activo: true, CreatedAt: now, UpdatedAt: now}
	req.Apply(j, zona)

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.Create(txCtx, j); err != nil {
			return wrapErr(err)
		}
		return s.emit(txCtx, audit.EventJuntaCreada, j, j.RazonSocial+" "+j.NumPersoneriaJuridica)
	})
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int64("junta.id", int64(j.ID)))
	if s.metrics != nil {
		s.metrics.IncrementJuntasCreadas()
	}
	return j, nil
}

// Update edits the current period of a junta. Closed periods are read-only.
func (s *Service) Update(ctx context.Context, id domain.JuntaID, req models.JuntaRequest) (*models.Junta, error) {
	req.Normalize()
	zona, err := req.Validate()
	if err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, &req); err != nil {
		return nil, err
	}

	var updated *models.Junta
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		j, err := s.store.FindByID(txCtx, id)
		if err != nil {
			return wrapErr(err)
		}
		if !j.Activo {
			return dErrors.New(dErrors.CodeConflict, "los periodos cerrados no se pueden editar")
		}
		req.Apply(j, zona)
		j.UpdatedAt = requestcontext.Now(txCtx)
		if err := s.store.Update(txCtx, j); err != nil {
			return wrapErr(err)
		}
		updated = j
		return s.emit(txCtx, audit.EventJuntaActualizada, j, j.RazonSocial)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id domain.JuntaID) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		j, err := s.store.FindByID(txCtx, id)
		if err != nil {
			return wrapErr(err)
		}
		if err := s.store.Delete(txCtx, id); err != nil {
			return wrapErr(err)
		}
		return s.emit(txCtx, audit.EventJuntaEliminada, j, j.RazonSocial+" "+j.NumPersoneriaJuridica)
	})
}

// CambiarPeriodo closes the active period of id and opens the next one in
// the same transaction. The new row points back at the closed one.
func (s *Service) CambiarPeriodo(ctx context.Context, id domain.JuntaID, req models.CambioPeriodoRequest) (*models.Junta, error) {
	ctx, span := tracer.Start(ctx, "juntas.CambiarPeriodo",
		trace.WithAttributes(attribute.Int64("junta.id", int64(id))))
	defer span.End()
	start := time.Now()

	var next *models.Junta
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		actual, err := s.store.FindByID(txCtx, id)
		if err != nil {
			return wrapErr(err)
		}
		if err := actual.CerrarPeriodo(txCtx); err != nil {
			return err
		}
		if err := req.Validate(actual); err != nil {
			return err
		}
		now := requestcontext.Now(txCtx)
		actual.UpdatedAt = now
		if err := s.store.Update(txCtx, actual); err != nil {
			return wrapErr(err)
		}

		next = actual.SiguientePeriodo(req)
		next.CreatedAt, next.UpdatedAt = now, now
		if err := s.store.Create(txCtx, next); err != nil {
			return wrapErr(err)
		}
		return s.emit(txCtx, audit.EventPeriodoCambiado, next,
			fmt.Sprintf("periodo %s a %s, anterior %s", next.FechaInicioPeriodo, next.FechaFinPeriodo, actual.ID))
	})
	if s.metrics != nil {
		s.metrics.ObserveCambioPeriodo(start)
	}
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int64("junta.nueva_id", int64(next.ID)))
	if s.metrics != nil {
		s.metrics.IncrementPeriodosCambiados()
	}
	return next, nil
}

// Historial returns every period of the junta that id belongs to, newest
// first.
func (s *Service) Historial(ctx context.Context, id domain.JuntaID) ([]*models.Junta, error) {
	newest, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := 0; i < maxPeriodos; i++ {
		next, err := s.store.FindSucesora(ctx, newest.ID)
		if errors.Is(err, store.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, wrapErr(err)
		}
		newest = next
	}

	out := []*models.Junta{newest}
	seen := map[domain.JuntaID]bool{newest.ID: true}
	for cur := newest; cur.JuntaAnteriorID != nil && len(out) < maxPeriodos; {
		if seen[*cur.JuntaAnteriorID] {
			return nil, dErrors.New(dErrors.CodeInternal, "historial de periodos inconsistente")
		}
		prev, err := s.Get(ctx, *cur.JuntaAnteriorID)
		if err != nil {
			return nil, err
		}
		seen[prev.ID] = true
		out = append(out, prev)
		cur = prev
	}
	return out, nil
}

// PersoneriaDisponible reports whether no active junta other than excluir
// holds num.
func (s *Service) PersoneriaDisponible(ctx context.Context, num string, excluir domain.JuntaID) (bool, error) {
	num = strings.ToUpper(strings.TrimSpace(num))
	if num == "" {
		return false, dErrors.New(dErrors.CodeValidation, "el número de personería jurídica es requerido")
	}
	j, err := s.store.FindActivaByPersoneria(ctx, num)
	if errors.Is(err, store.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo verificar la personería jurídica")
	}
	return j.ID == excluir, nil
}

// checkRefs verifies the tipo de junta, institución and municipio exist.
func (s *Service) checkRefs(ctx context.Context, req *models.JuntaRequest) error {
	if _, err := s.catalogo.Get(ctx, cmodels.KindTipoJunta, req.TipoJuntaID); err != nil {
		return refErr(err, "el tipo de junta no existe")
	}
	if req.InstitucionID != nil {
		if _, err := s.catalogo.Get(ctx, cmodels.KindInstitucion, *req.InstitucionID); err != nil {
			return refErr(err, "la institución no existe")
		}
	}
	l, err := s.lugares.Get(ctx, domain.LugarID(req.LugarID))
	if err != nil {
		return refErr(err, "el municipio no existe")
	}
	if l.Tipo != lmodels.TipoMunicipio {
		return dErrors.New(dErrors.CodeValidation, "la junta debe ubicarse en un municipio")
	}
	return nil
}

func refErr(err error, msg string) error {
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return dErrors.New(dErrors.CodeValidation, msg)
	}
	return err
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, j *models.Junta, detail string) error {
	if s.auditPublisher == nil {
		return nil
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:  string(action),
		Subject: "juntas/" + j.ID.String(),
		Detail:  detail,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event", "action", action, "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo registrar la auditoría")
	}
	return nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func wrapErr(err error) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "junta no encontrada")
	case errors.Is(err, store.ErrPersoneriaTaken):
		return dErrors.New(dErrors.CodeConflict, "ya existe una junta activa con ese número de personería jurídica")
	case errors.Is(err, store.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "la junta viola una restricción de integridad")
	case errors.Is(err, store.ErrInUse):
		return dErrors.New(dErrors.CodeConflict, "la junta tiene certificados o periodos posteriores y no puede eliminarse")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "error de almacenamiento de juntas")
}
