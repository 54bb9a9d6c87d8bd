package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	cmodels "juntas/internal/catalogo/models"
	jmodels "juntas/internal/juntas/models"
	lmodels "juntas/internal/lugares/models"
	"juntas/internal/mandatarios/models"
	"juntas/internal/mandatarios/store"
	"juntas/internal/platform/database"
	"juntas/pkg/domain"
	dErrors "juntas/pkg/domain-errors"
	audit "juntas/pkg/platform/audit"
	"juntas/pkg/requestcontext"
)

var tracer = otel.Tracer("juntas/internal/mandatarios/service")

type Store interface {
	List(ctx context.Context, f models.Filter) ([]*models.Mandatario, error)
	FindByID(ctx context.Context, id domain.MandatarioID) (*models.Mandatario, error)
	FindLatestByDocumento(ctx context.Context, documento string) (*models.Mandatario, error)
	Create(ctx context.Context, m *models.Mandatario) error
	Update(ctx context.Context, m *models.Mandatario) error
	Delete(ctx context.Context, id domain.MandatarioID) error
}

type Juntas interface {
	Get(ctx context.Context, id domain.JuntaID) (*jmodels.Junta, error)
}

// Catalogo resolves cargos, comisiones and tipos de documento.
type Catalogo interface {
	Get(ctx context.Context, kind cmodels.Kind, id int64) (*cmodels.Item, error)
}

type Lugares interface {
	Get(ctx context.Context, id domain.LugarID) (*lmodels.Lugar, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          Store
	juntas         Juntas
	catalogo       Catalogo
	lugares        Lugares
	tx             database.TxRunner
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

func New(st Store, juntas Juntas, catalogo Catalogo, lugares Lugares, opts ...Option) *Service {
	s := &Service{
		store:    st,
		juntas:   juntas,
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

func (s *Service) List(ctx context.Context, f models.Filter) ([]*models.Mandatario, error) {
	out, err := s.store.List(ctx, f)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo listar mandatarios")
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id domain.MandatarioID) (*models.Mandatario, error) {
	m, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapErr(err)
	}
	return m, nil
}

func today(ctx context.Context) domain.Fecha {
	return domain.FechaOf(requestcontext.Now(ctx))
}

// Create registers a mandatario in an active junta. The membership check and
// the insert share one transaction; the (junta, documento) unique key makes
// a concurrent duplicate fail with conflict.
func (s *Service) Create(ctx context.Context, req models.MandatarioRequest) (*models.Mandatario, error) {
	ctx, span := tracer.Start(ctx, "mandatarios.Create",
		trace.WithAttributes(attribute.Int64("junta.id", req.JuntaID)))
	defer span.End()

	req.Normalize()
	genero, asignacion, err := req.Validate(today(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, &req, asignacion); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	m := &models.Mandatario{JuntaID: domain.JuntaID(req.JuntaID), CreatedAt: now, UpdatedAt: now}
	req.Apply(m, genero, asignacion)

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		junta, err := s.junta(txCtx, m.JuntaID)
		if err != nil {
			return err
		}
		if !junta.Activo {
			return dErrors.New(dErrors.CodeConflict, "la junta no tiene un periodo activo")
		}
		if err := applyPeriodo(m, junta, &req); err != nil {
			return err
		}
		if err := s.store.Create(txCtx, m); err != nil {
			return wrapErr(err)
		}
		return s.emit(txCtx, audit.EventMandatarioCreado, m, m.NombreCompleto()+" "+m.Documento)
	})
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int64("mandatario.id", int64(m.ID)))
	return m, nil
}

// Update rewrites the mandatario's data. The junta cannot change.
func (s *Service) Update(ctx context.Context, id domain.MandatarioID, req models.MandatarioRequest) (*models.Mandatario, error) {
	req.Normalize()
	genero, asignacion, err := req.Validate(today(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, &req, asignacion); err != nil {
		return nil, err
	}

	var updated *models.Mandatario
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		m, err := s.store.FindByID(txCtx, id)
		if err != nil {
			return wrapErr(err)
		}
		if domain.JuntaID(req.JuntaID) != m.JuntaID {
			return dErrors.New(dErrors.CodeBadRequest, "no se puede cambiar la junta de un mandatario")
		}
		junta, err := s.junta(txCtx, m.JuntaID)
		if err != nil {
			return err
		}
		if err := periodoAbierto(junta); err != nil {
			return err
		}
		req.Apply(m, genero, asignacion)
		if err := applyPeriodo(m, junta, &req); err != nil {
			return err
		}
		m.UpdatedAt = requestcontext.Now(txCtx)
		if err := s.store.Update(txCtx, m); err != nil {
			return wrapErr(err)
		}
		updated = m
		return s.emit(txCtx, audit.EventMandatarioActualizado, m, m.NombreCompleto())
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Asignar replaces the mandatario's cargo or comisión. An empty request
// leaves the mandatario unassigned.
func (s *Service) Asignar(ctx context.Context, id domain.MandatarioID, req models.AsignacionRequest) (*models.Mandatario, error) {
	ctx, span := tracer.Start(ctx, "mandatarios.Asignar",
		trace.WithAttributes(attribute.Int64("mandatario.id", int64(id))))
	defer span.End()

	asignacion, err := req.Asignacion()
	if err != nil {
		return nil, err
	}
	if err := s.checkAsignacion(ctx, asignacion); err != nil {
		return nil, err
	}

	var updated *models.Mandatario
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		m, err := s.store.FindByID(txCtx, id)
		if err != nil {
			return wrapErr(err)
		}
		junta, err := s.junta(txCtx, m.JuntaID)
		if err != nil {
			return err
		}
		if err := periodoAbierto(junta); err != nil {
			return err
		}
		m.Asignacion = asignacion
		m.UpdatedAt = requestcontext.Now(txCtx)
		if err := s.store.Update(txCtx, m); err != nil {
			return wrapErr(err)
		}
		updated = m
		return s.emit(txCtx, audit.EventMandatarioActualizado, m, "asignación "+string(m.Estado()))
	})
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	return updated, nil
}

// periodoAbierto rejects edits to the mandates of a closed period; they
// are part of the historical record.
func periodoAbierto(j *jmodels.Junta) error {
	if !j.Activo {
		return dErrors.New(dErrors.CodeConflict, "los periodos cerrados no se pueden editar")
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id domain.MandatarioID) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		m, err := s.store.FindByID(txCtx, id)
		if err != nil {
			return wrapErr(err)
		}
		if err := s.store.Delete(txCtx, id); err != nil {
			return wrapErr(err)
		}
		return s.emit(txCtx, audit.EventMandatarioEliminado, m, m.NombreCompleto()+" "+m.Documento)
	})
}

// Buscar looks a person up by documento before creating them. With a junta it
// also reports whether they already belong to it, in which case the returned
// record is that membership.
func (s *Service) Buscar(ctx context.Context, documento string, junta domain.JuntaID) (*models.Busqueda, error) {
	if err := models.ValidateDocumento(documento); err != nil {
		return nil, err
	}
	latest, err := s.store.FindLatestByDocumento(ctx, documento)
	if errors.Is(err, store.ErrNotFound) {
		return &models.Busqueda{}, nil
	}
	if err != nil {
		return nil, wrapErr(err)
	}
	out := &models.Busqueda{Encontrado: true, Mandatario: latest}
	if junta == 0 {
		return out, nil
	}
	members, err := s.store.List(ctx, models.Filter{JuntaID: junta, Documento: documento})
	if err != nil {
		return nil, wrapErr(err)
	}
	if len(members) > 0 {
		out.YaEsMiembro = true
		out.Mandatario = members[0]
	}
	return out, nil
}

// Activo returns the newest membership of documento in a junta whose period
// is active, together with that junta.
func (s *Service) Activo(ctx context.Context, documento string) (*models.Mandatario, *jmodels.Junta, error) {
	if err := models.ValidateDocumento(documento); err != nil {
		return nil, nil, err
	}
	all, err := s.store.List(ctx, models.Filter{Documento: documento})
	if err != nil {
		return nil, nil, wrapErr(err)
	}
	var (
		found *models.Mandatario
		junta *jmodels.Junta
	)
	for _, m := range all {
		j, err := s.juntas.Get(ctx, m.JuntaID)
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		if j.Activo && (found == nil || m.ID > found.ID) {
			found, junta = m, j
		}
	}
	if found == nil {
		return nil, nil, dErrors.New(dErrors.CodeNotFound, "no hay un mandatario activo con ese documento")
	}
	return found, junta, nil
}

func (s *Service) junta(ctx context.Context, id domain.JuntaID) (*jmodels.Junta, error) {
	j, err := s.juntas.Get(ctx, id)
	if err != nil {
		return nil, refErr(err, "la junta no existe")
	}
	return j, nil
}

// applyPeriodo defaults the mandate period to the junta's and checks that
// it lies inside it and that the mandatario is old enough when it starts.
func applyPeriodo(m *models.Mandatario, junta *jmodels.Junta, req *models.MandatarioRequest) error {
	inicio, fin := req.FInicioPeriodo, req.FFinPeriodo
	if inicio.IsZero() {
		inicio = junta.FechaInicioPeriodo
	}
	if fin.IsZero() {
		fin = junta.FechaFinPeriodo
	}
	if fin.Before(inicio) {
		return dErrors.New(dErrors.CodeValidation, "el fin del periodo no puede ser anterior a su inicio")
	}
	if inicio.Before(junta.FechaInicioPeriodo) || fin.After(junta.FechaFinPeriodo) {
		return dErrors.New(dErrors.CodeValidation, "el periodo del mandatario debe estar dentro del periodo de la junta")
	}
	if m.Edad(inicio) < models.EdadMinima {
		return dErrors.New(dErrors.CodeValidation, "el mandatario debe tener al menos 14 años al inicio del periodo")
	}
	m.FInicioPeriodo, m.FFinPeriodo = inicio, fin
	return nil
}

func (s *Service) checkRefs(ctx context.Context, req *models.MandatarioRequest, asignacion *models.Asignacion) error {
	if req.TipoDocumentoID != nil {
		if _, err := s.catalogo.Get(ctx, cmodels.KindDocumento, *req.TipoDocumentoID); err != nil {
			return refErr(err, "el tipo de documento no existe")
		}
	}
	if req.LugarResidenciaID != nil {
		if _, err := s.lugares.Get(ctx, domain.LugarID(*req.LugarResidenciaID)); err != nil {
			return refErr(err, "el lugar de residencia no existe")
		}
	}
	return s.checkAsignacion(ctx, asignacion)
}

func (s *Service) checkAsignacion(ctx context.Context, a *models.Asignacion) error {
	if a == nil {
		return nil
	}
	if a.Tipo == models.AsignacionCargo {
		if _, err := s.catalogo.Get(ctx, cmodels.KindCargo, a.ID); err != nil {
			return refErr(err, "el cargo no existe")
		}
		return nil
	}
	if _, err := s.catalogo.Get(ctx, cmodels.KindComision, a.ID); err != nil {
		return refErr(err, "la comisión no existe")
	}
	return nil
}

func refErr(err error, msg string) error {
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return dErrors.New(dErrors.CodeValidation, msg)
	}
	return err
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, m *models.Mandatario, detail string) error {
	if s.auditPublisher == nil {
		return nil
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:  string(action),
		Subject: "mandatarios/" + m.ID.String(),
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
		return dErrors.New(dErrors.CodeNotFound, "mandatario no encontrado")
	case errors.Is(err, store.ErrYaEsMiembro):
		return dErrors.New(dErrors.CodeConflict, "el documento ya pertenece a un mandatario de esta junta")
	case errors.Is(err, store.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "el mandatario viola una restricción de integridad")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "error de almacenamiento de mandatarios")
}
