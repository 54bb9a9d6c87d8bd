package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"juntas/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers changes to official records: juntas,
	// mandatarios, usuarios and issued certificates.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers authentication outcomes and access violations.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity such as exports and
	// public certificate validations.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. It stays
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID
	Category  EventCategory
	Timestamp time.Time
	UsuarioID domain.UsuarioID
	Subject   string
	Action    string
	Decision  string
	Reason    string
	RequestID string
	IP        string
	UserAgent string
	// Detail is a short human readable summary shown on the Logs page.
	Detail string
}

type AuditEvent string

const (
	// Auth events
	EventLoginSucceeded         AuditEvent = "login_succeeded"
	EventLoginFailed            AuditEvent = "login_failed"
	EventLoginBloqueado         AuditEvent = "login_bloqueado"
	EventLogout                 AuditEvent = "logout"
	EventPasswordResetRequested AuditEvent = "password_reset_requested"
	EventPasswordResetCompleted AuditEvent = "password_reset_completed"
	EventAccessDenied           AuditEvent = "access_denied"

	// Usuario events
	EventUsuarioCreado      AuditEvent = "usuario_creado"
	EventUsuarioActualizado AuditEvent = "usuario_actualizado"
	EventUsuarioEliminado   AuditEvent = "usuario_eliminado"

	// Junta events
	EventJuntaCreada      AuditEvent = "junta_creada"
	EventJuntaActualizada AuditEvent = "junta_actualizada"
	EventJuntaEliminada   AuditEvent = "junta_eliminada"
	EventPeriodoCambiado  AuditEvent = "periodo_cambiado"

	// Mandatario events
	EventMandatarioCreado      AuditEvent = "mandatario_creado"
	EventMandatarioActualizado AuditEvent = "mandatario_actualizado"
	EventMandatarioEliminado   AuditEvent = "mandatario_eliminado"

	// Certificate events
	EventCertificadoEmitido   AuditEvent = "certificado_emitido"
	EventCertificadoValidado  AuditEvent = "certificado_validado"
	EventCertificadoRechazado AuditEvent = "certificado_rechazado"

	// Reference data and reporting
	EventCatalogoModificado AuditEvent = "catalogo_modificado"
	EventLugarModificado    AuditEvent = "lugar_modificado"
	EventReporteExportado   AuditEvent = "reporte_exportado"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventUsuarioCreado:         CategoryCompliance,
	EventUsuarioActualizado:    CategoryCompliance,
	EventUsuarioEliminado:      CategoryCompliance,
	EventJuntaCreada:           CategoryCompliance,
	EventJuntaActualizada:      CategoryCompliance,
	EventJuntaEliminada:        CategoryCompliance,
	EventPeriodoCambiado:       CategoryCompliance,
	EventMandatarioCreado:      CategoryCompliance,
	EventMandatarioActualizado: CategoryCompliance,
	EventMandatarioEliminado:   CategoryCompliance,
	EventCertificadoEmitido:    CategoryCompliance,

	EventLoginSucceeded:         CategorySecurity,
	EventLoginFailed:            CategorySecurity,
	EventLoginBloqueado:         CategorySecurity,
	EventLogout:                 CategorySecurity,
	EventPasswordResetRequested: CategorySecurity,
	EventPasswordResetCompleted: CategorySecurity,
	EventAccessDenied:           CategorySecurity,
	EventCertificadoRechazado:   CategorySecurity,

	EventCertificadoValidado: CategoryOperations,
	EventCatalogoModificado:  CategoryOperations,
	EventLugarModificado:     CategoryOperations,
	EventReporteExportado:    CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUsuario(ctx context.Context, usuarioID domain.UsuarioID) ([]Event, error)
	// ListRecent returns up to limit events, newest first.
	ListRecent(ctx context.Context, limit int) ([]Event, error)
	// ListByActions is ListRecent restricted to the given actions.
	ListByActions(ctx context.Context, actions []string, limit int) ([]Event, error)
}

// Sink receives events after they are persisted. Sink failures never fail
// the business operation.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}
