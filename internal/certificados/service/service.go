// Package service issues certificate PDFs and answers public QR validations.
package service

//go:generate mockgen -destination=mocks/mocks.go -package=mocks juntas/internal/certificados/service Juntas,Mandatarios,Usuarios

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	cmodels "juntas/internal/catalogo/models"
	"juntas/internal/certificados/metrics"
	"juntas/internal/certificados/models"
	"juntas/internal/certificados/pdf"
	"juntas/internal/certificados/store"
	jmodels "juntas/internal/juntas/models"
	mmodels "juntas/internal/mandatarios/models"
	"juntas/internal/platform/database"
	umodels "juntas/internal/usuarios/models"
	"juntas/pkg/domain"
	dErrors "juntas/pkg/domain-errors"
	audit "juntas/pkg/platform/audit"
	"juntas/pkg/requestcontext"
)

var tracer = otel.Tracer("juntas/internal/certificados/service")

type Store interface {
	Create(ctx context.Context, c *models.Certificado) error
	FindByID(ctx context.Context, id domain.CertificadoID) (*models.Certificado, error)
	ListByJunta(ctx context.Context, junta domain.JuntaID) ([]*models.Certificado, error)
}

type Juntas interface {
	Detalle(ctx context.Context, id domain.JuntaID) (*jmodels.Detalle, error)
}

type Mandatarios interface {
	Activo(ctx context.Context, documento string) (*mmodels.Mandatario, *jmodels.Junta, error)
}

type Catalogo interface {
	Get(ctx context.Context, kind cmodels.Kind, id int64) (*cmodels.Item, error)
}

type Usuarios interface {
	Get(ctx context.Context, id domain.UsuarioID) (*umodels.Usuario, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          Store
	juntas         Juntas
	mandatarios    Mandatarios
	catalogo       Catalogo
	usuarios       Usuarios
	publicURL      string
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

// WithPublicURL sets the frontend origin encoded in QR codes.
func WithPublicURL(url string) Option {
	return func(s *Service) { s.publicURL = url }
}

func New(st Store, juntas Juntas, mandatarios Mandatarios, catalogo Catalogo, usuarios Usuarios, opts ...Option) *Service {
	s := &Service{
		store:       st,
		juntas:      juntas,
		mandatarios: mandatarios,
		catalogo:    catalogo,
		usuarios:    usuarios,
		publicURL:   "http://localhost:5173",
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = database.NewMemoryTx()
	}
	return s
}

// ValidarURL is the address printed in the certificate's QR code.
func (s *Service) ValidarURL(id domain.CertificadoID) string {
	return s.publicURL + "/validar/" + id.String()
}

// Emitir issues a certificate for the authenticated user and renders it.
// The record is stored only when rendering succeeds.
func (s *Service) Emitir(ctx context.Context, req models.EmitirRequest) (*models.Emision, error) {
	ctx, span := tracer.Start(ctx, "certificados.Emitir")
	defer span.End()

	tipo, err := req.Validate()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("certificado.tipo", string(tipo)))

	emisorID := requestcontext.UsuarioID(ctx)
	if emisorID == 0 {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "sesión requerida")
	}
	emisor, err := s.usuarios.Get(ctx, emisorID)
	if err != nil {
		return nil, err
	}

	c := &models.Certificado{
		ID:         domain.NewCertificadoID(),
		Tipo:       tipo,
		EmitidoPor: emisorID,
		EmitidoEn:  requestcontext.Now(ctx),
	}
	if tipo == models.TipoAutoresolutorio {
		err = s.datosMandatario(ctx, c, req.Documento)
	} else {
		err = s.datosJunta(ctx, c, domain.JuntaID(req.JuntaID))
	}
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	c.Datos.EmitidoPor = emisor.Nombre

	start := time.Now()
	body, err := pdf.Render(pdf.Input{Certificado: c, ValidarURL: s.ValidarURL(c.ID), Firma: emisor.Firma})
	if s.metrics != nil {
		s.metrics.ObserveRender(start)
	}
	if err != nil {
		recordError(span, err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo generar el certificado")
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.Create(txCtx, c); err != nil {
			return wrapErr(err)
		}
		return s.emit(txCtx, audit.EventCertificadoEmitido, c.ID, string(c.Tipo)+" "+c.Datos.RazonSocial)
	})
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("certificado.id", c.ID.String()))
	if s.metrics != nil {
		s.metrics.IncrementEmitidos(string(tipo))
	}
	return &models.Emision{Certificado: c, PDF: body}, nil
}

func (s *Service) datosJunta(ctx context.Context, c *models.Certificado, id domain.JuntaID) error {
	d, err := s.juntas.Detalle(ctx, id)
	if err != nil {
		return err
	}
	if !d.Activo {
		return dErrors.New(dErrors.CodeConflict, "la junta no tiene un periodo activo")
	}
	if d.CodigoTipoJunta != c.Tipo.CodigoTipoJunta() {
		return dErrors.New(dErrors.CodeValidation, "la junta no es de tipo "+c.Tipo.CodigoTipoJunta())
	}
	c.JuntaID = d.ID
	fillJunta(&c.Datos, d)
	return nil
}

func (s *Service) datosMandatario(ctx context.Context, c *models.Certificado, documento string) error {
	m, junta, err := s.mandatarios.Activo(ctx, documento)
	if err != nil {
		return err
	}
	d, err := s.juntas.Detalle(ctx, junta.ID)
	if err != nil {
		return err
	}
	c.JuntaID = junta.ID
	c.MandatarioID = &m.ID
	c.Documento = m.Documento
	fillJunta(&c.Datos, d)
	c.Datos.FechaInicioPeriodo, c.Datos.FechaFinPeriodo = m.FInicioPeriodo, m.FFinPeriodo
	c.Datos.Mandatario = m.NombreCompleto()
	c.Datos.Documento = m.Documento

	switch m.Estado() {
	case mmodels.AsignadoCargo:
		cargo, err := s.catalogo.Get(ctx, cmodels.KindCargo, m.Asignacion.ID)
		if err != nil {
			return err
		}
		c.Datos.Cargo = cargo.Nombre
	case mmodels.AsignadoComision:
		comision, err := s.catalogo.Get(ctx, cmodels.KindComision, m.Asignacion.ID)
		if err != nil {
			return err
		}
		c.Datos.Cargo = "integrante de la " + comision.Nombre
	}
	return nil
}

func fillJunta(d *models.Datos, j *jmodels.Detalle) {
	d.RazonSocial = j.RazonSocial
	d.NumPersoneriaJuridica = j.NumPersoneriaJuridica
	d.TipoJunta = j.TipoJunta
	d.Municipio = j.Municipio
	d.Provincia = j.Provincia
	d.FechaInicioPeriodo = j.FechaInicioPeriodo
	d.FechaFinPeriodo = j.FechaFinPeriodo
}

// Validar answers a QR scan. Unknown and malformed ids are reported as
// invalid rather than as errors.
func (s *Service) Validar(ctx context.Context, raw string) (*models.Validacion, error) {
	ctx, span := tracer.Start(ctx, "certificados.Validar")
	defer span.End()

	id, err := domain.ParseCertificadoID(raw)
	if err != nil {
		s.rechazar(ctx, raw)
		return &models.Validacion{Mensaje: "el código del certificado no es válido"}, nil
	}
	c, err := s.store.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		s.rechazar(ctx, raw)
		return &models.Validacion{Mensaje: "el certificado no existe o no fue emitido por la Gobernación de Boyacá"}, nil
	}
	if err != nil {
		recordError(span, err)
		return nil, wrapErr(err)
	}
	if err := s.emit(ctx, audit.EventCertificadoValidado, c.ID, string(c.Tipo)); err != nil {
		s.logger.WarnContext(ctx, "validation audit dropped", "certificado_id", c.ID.String())
	}
	if s.metrics != nil {
		s.metrics.IncrementValidaciones(true)
	}
	return &models.Validacion{Valido: true, Data: c}, nil
}

func (s *Service) rechazar(ctx context.Context, raw string) {
	if s.metrics != nil {
		s.metrics.IncrementValidaciones(false)
	}
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:  string(audit.EventCertificadoRechazado),
		Subject: "certificados",
		Detail:  truncate(raw, 64),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "validation audit dropped", "error", err)
	}
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func (s *Service) List(ctx context.Context, junta domain.JuntaID) ([]*models.Certificado, error) {
	out, err := s.store.ListByJunta(ctx, junta)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo listar certificados")
	}
	return out, nil
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, id domain.CertificadoID, detail string) error {
	if s.auditPublisher == nil {
		return nil
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:  string(action),
		Subject: "certificados/" + id.String(),
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
		return dErrors.New(dErrors.CodeNotFound, "certificado no encontrado")
	case errors.Is(err, store.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "el certificado ya existe")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "error de almacenamiento de certificados")
}
