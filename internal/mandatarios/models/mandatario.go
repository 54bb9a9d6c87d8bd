package models

import (
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	"juntas/pkg/domain"
	dErrors "juntas/pkg/domain-errors"
)

// EdadMinima is the youngest age at which a person can hold a mandate.
const EdadMinima = 14

type Genero string

const (
	GeneroMasculino Genero = "Masculino"
	GeneroFemenino  Genero = "Femenino"
	GeneroOtro      Genero = "Otro"
)

func Generos() []Genero { return []Genero{GeneroMasculino, GeneroFemenino, GeneroOtro} }

func ParseGenero(s string) (Genero, error) {
	s = strings.TrimSpace(s)
	for _, g := range Generos() {
		if strings.EqualFold(s, string(g)) {
			return g, nil
		}
	}
	return "", dErrors.New(dErrors.CodeValidation, "género inválido: debe ser Masculino, Femenino u Otro")
}

type Mandatario struct {
	ID                domain.MandatarioID `json:"id"`
	JuntaID           domain.JuntaID      `json:"juntaId"`
	Documento         string              `json:"documento"`
	TipoDocumentoID   *domain.DocumentoID `json:"tipoDocumentoId,omitempty"`
	Nombres           string              `json:"nombres"`
	Apellidos         string              `json:"apellidos"`
	Genero            Genero              `json:"genero"`
	FechaNacimiento   domain.Fecha        `json:"fechaNacimiento"`
	Residencia        string              `json:"residencia"`
	LugarResidenciaID *domain.LugarID     `json:"lugarResidenciaId,omitempty"`
	Telefono          string              `json:"telefono"`
	Email             string              `json:"email"`
	Asignacion        *Asignacion         `json:"asignacion"`
	FInicioPeriodo    domain.Fecha        `json:"fInicioPeriodo"`
	FFinPeriodo       domain.Fecha        `json:"fFinPeriodo"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

func (m *Mandatario) NombreCompleto() string {
	return strings.TrimSpace(m.Nombres + " " + m.Apellidos)
}

// Edad returns the completed years of the mandatario at the given date.
func (m *Mandatario) Edad(at domain.Fecha) int {
	return m.FechaNacimiento.YearsAt(at)
}

func (m *Mandatario) Estado() EstadoAsignacion {
	return m.Asignacion.Estado()
}

type Filter struct {
	JuntaID    domain.JuntaID
	Documento  string
	CargoID    domain.CargoID
	ComisionID domain.ComisionID
}

// Busqueda answers the pre-creation lookup: whether the person is known
// anywhere, and whether they already belong to the target junta.
type Busqueda struct {
	Encontrado  bool        `json:"encontrado"`
	Mandatario  *Mandatario `json:"mandatario"`
	YaEsMiembro bool        `json:"yaEsMiembro"`
}

// MandatarioRequest is the create/update payload. At most one of CargoID
// and ComisionID may be set. Empty period dates default to the junta's.
type MandatarioRequest struct {
	JuntaID           int64        `json:"juntaId"`
	Documento         string       `json:"documento"`
	TipoDocumentoID   *int64       `json:"tipoDocumentoId"`
	Nombres           string       `json:"nombres"`
	Apellidos         string       `json:"apellidos"`
	Genero            string       `json:"genero"`
	FechaNacimiento   domain.Fecha `json:"fechaNacimiento"`
	Residencia        string       `json:"residencia"`
	LugarResidenciaID *int64       `json:"lugarResidenciaId"`
	Telefono          string       `json:"telefono"`
	Email             string       `json:"email"`
	CargoID           *int64       `json:"cargoId"`
	ComisionID        *int64       `json:"comisionId"`
	FInicioPeriodo    domain.Fecha `json:"fInicioPeriodo"`
	FFinPeriodo       domain.Fecha `json:"fFinPeriodo"`
}

func zeroToNil(p *int64) *int64 {
	if p != nil && *p == 0 {
		return nil
	}
	return p
}

func (r *MandatarioRequest) Normalize() {
	r.Documento = strings.TrimSpace(r.Documento)
	r.Nombres = strings.Join(strings.Fields(r.Nombres), " ")
	r.Apellidos = strings.Join(strings.Fields(r.Apellidos), " ")
	r.Residencia = strings.TrimSpace(r.Residencia)
	r.Telefono = strings.TrimSpace(r.Telefono)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.TipoDocumentoID = zeroToNil(r.TipoDocumentoID)
	r.LugarResidenciaID = zeroToNil(r.LugarResidenciaID)
	r.CargoID = zeroToNil(r.CargoID)
	r.ComisionID = zeroToNil(r.ComisionID)
}

func ValidateDocumento(documento string) error {
	if documento == "" {
		return dErrors.New(dErrors.CodeValidation, "el documento es requerido")
	}
	if len(documento) < 5 || len(documento) > 15 || !govalidator.IsAlphanumeric(documento) {
		return dErrors.New(dErrors.CodeValidation, "el documento debe tener entre 5 y 15 caracteres alfanuméricos")
	}
	return nil
}

// Validate checks field shape and returns the parsed genero and assignment.
// Period bounds against the junta are checked by the service.
func (r *MandatarioRequest) Validate(today domain.Fecha) (Genero, *Asignacion, error) {
	asignacion, err := AsignacionFrom(r.CargoID, r.ComisionID)
	if err != nil {
		return "", nil, err
	}
	if r.JuntaID <= 0 {
		return "", nil, dErrors.New(dErrors.CodeValidation, "la junta es requerida")
	}
	if err := ValidateDocumento(r.Documento); err != nil {
		return "", nil, err
	}
	if r.Nombres == "" || r.Apellidos == "" {
		return "", nil, dErrors.New(dErrors.CodeValidation, "nombres y apellidos son requeridos")
	}
	genero, err := ParseGenero(r.Genero)
	if err != nil {
		return "", nil, err
	}
	if r.FechaNacimiento.IsZero() {
		return "", nil, dErrors.New(dErrors.CodeValidation, "la fecha de nacimiento es requerida")
	}
	if r.FechaNacimiento.After(today) {
		return "", nil, dErrors.New(dErrors.CodeValidation, "la fecha de nacimiento no puede ser futura")
	}
	if r.Email != "" && !govalidator.IsEmail(r.Email) {
		return "", nil, dErrors.New(dErrors.CodeValidation, "el correo no es válido")
	}
	if r.Telefono != "" && (!govalidator.IsNumeric(r.Telefono) || len(r.Telefono) < 7 || len(r.Telefono) > 15) {
		return "", nil, dErrors.New(dErrors.CodeValidation, "el teléfono debe tener entre 7 y 15 dígitos")
	}
	if !r.FInicioPeriodo.IsZero() && !r.FFinPeriodo.IsZero() && r.FFinPeriodo.Before(r.FInicioPeriodo) {
		return "", nil, dErrors.New(dErrors.CodeValidation, "el fin del periodo no puede ser anterior a su inicio")
	}
	return genero, asignacion, nil
}

// Apply copies the validated payload onto m. Period dates are set by the
// service after defaulting.
func (r *MandatarioRequest) Apply(m *Mandatario, genero Genero, asignacion *Asignacion) {
	m.Documento = r.Documento
	m.Nombres = r.Nombres
	m.Apellidos = r.Apellidos
	m.Genero = genero
	m.FechaNacimiento = r.FechaNacimiento
	m.Residencia = r.Residencia
	m.Telefono = r.Telefono
	m.Email = r.Email
	m.Asignacion = asignacion
	m.TipoDocumentoID = nil
	if r.TipoDocumentoID != nil {
		id := domain.DocumentoID(*r.TipoDocumentoID)
		m.TipoDocumentoID = &id
	}
	m.LugarResidenciaID = nil
	if r.LugarResidenciaID != nil {
		id := domain.LugarID(*r.LugarResidenciaID)
		m.LugarResidenciaID = &id
	}
}
