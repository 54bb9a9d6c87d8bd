package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"juntas/pkg/domain"
	dErrors "juntas/pkg/domain-errors"
)

// PeriodoAnios is the fixed length of a board's mandate.
const PeriodoAnios = 4

type Zona string

const (
	ZonaUrbana Zona = "urbana"
	ZonaRural  Zona = "rural"
)

func ParseZona(s string) (Zona, error) {
	switch z := Zona(strings.ToLower(strings.TrimSpace(s))); z {
	case ZonaUrbana, ZonaRural:
		return z, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "zona inválida: debe ser urbana o rural")
}

// Junta is one period of a Junta de Acción Comunal. A period change creates
// a new row pointing back at the previous one.
type Junta struct {
	ID                    domain.JuntaID        `json:"ID"`
	RazonSocial           string                `json:"RazonSocial"`
	Direccion             string                `json:"Direccion"`
	NumPersoneriaJuridica string                `json:"NumPersoneriaJuridica"`
	FechaCreacion         domain.Fecha          `json:"FechaCreacion"`
	Zona                  Zona                  `json:"Zona"`
	FechaInicioPeriodo    domain.Fecha          `json:"FechaInicioPeriodo"`
	FechaFinPeriodo       domain.Fecha          `json:"FechaFinPeriodo"`
	FechaAsamblea         domain.Fecha          `json:"FechaAsamblea"`
	TipoJuntaID           domain.TipoJuntaID    `json:"TipoJuntaID"`
	InstitucionID         *domain.InstitucionID `json:"InstitucionID"`
	LugarID               domain.LugarID        `json:"LugarID"`
	Activo                bool                  `json:"Activo"`
	JuntaAnteriorID       *domain.JuntaID       `json:"JuntaAnteriorID"`
	CreatedAt             time.Time             `json:"CreatedAt"`
	UpdatedAt             time.Time             `json:"UpdatedAt"`
}

// FinPeriodo derives the end of a period starting at inicio.
func FinPeriodo(inicio domain.Fecha) domain.Fecha {
	return inicio.AddYears(PeriodoAnios)
}

// Vigente reports whether at falls inside the junta's period.
func (j *Junta) Vigente(at domain.Fecha) bool {
	return !at.Before(j.FechaInicioPeriodo) && !at.After(j.FechaFinPeriodo)
}

// Detalle is a Junta enriched with the names of its references.
type Detalle struct {
	*Junta
	Estado          Estado `json:"Estado"`
	TipoJunta       string `json:"TipoJunta"`
	CodigoTipoJunta string `json:"CodigoTipoJunta"`
	Institucion     string `json:"Institucion,omitempty"`
	Municipio       string `json:"Municipio"`
	Provincia       string `json:"Provincia,omitempty"`
}

type Filter struct {
	Activo      *bool
	LugarID     domain.LugarID
	TipoJuntaID domain.TipoJuntaID
	// Q matches razón social or personería, ignoring case and accents.
	Q string
}

// JuntaRequest is the create/update payload. FechaFinPeriodo is optional;
// when present it must equal FechaInicioPeriodo plus four years.
type JuntaRequest struct {
	RazonSocial           string       `json:"RazonSocial"`
	Direccion             string       `json:"Direccion"`
	NumPersoneriaJuridica string       `json:"NumPersoneriaJuridica"`
	FechaCreacion         domain.Fecha `json:"FechaCreacion"`
	Zona                  string       `json:"Zona"`
	FechaInicioPeriodo    domain.Fecha `json:"FechaInicioPeriodo"`
	FechaFinPeriodo       domain.Fecha `json:"FechaFinPeriodo"`
	FechaAsamblea         domain.Fecha `json:"FechaAsamblea"`
	TipoJuntaID           int64        `json:"TipoJuntaID"`
	InstitucionID         *int64       `json:"InstitucionID"`
	LugarID               int64        `json:"LugarID"`
}

func (r *JuntaRequest) Normalize() {
	r.RazonSocial = strings.Join(strings.Fields(r.RazonSocial), " ")
	r.Direccion = strings.TrimSpace(r.Direccion)
	r.NumPersoneriaJuridica = strings.ToUpper(strings.TrimSpace(r.NumPersoneriaJuridica))
	if r.InstitucionID != nil && *r.InstitucionID == 0 {
		r.InstitucionID = nil
	}
}

// Validate checks the payload shape and the four-year period rule. It
// returns the parsed zona. References are checked by the service.
func (r *JuntaRequest) Validate() (Zona, error) {
	switch {
	case r.RazonSocial == "":
		return "", dErrors.New(dErrors.CodeValidation, "la razón social es requerida")
	case utf8.RuneCountInString(r.RazonSocial) > 200:
		return "", dErrors.New(dErrors.CodeValidation, "la razón social no puede superar 200 caracteres")
	case r.NumPersoneriaJuridica == "":
		return "", dErrors.New(dErrors.CodeValidation, "el número de personería jurídica es requerido")
	case len(r.NumPersoneriaJuridica) > 50:
		return "", dErrors.New(dErrors.CodeValidation, "el número de personería jurídica no puede superar 50 caracteres")
	case r.FechaCreacion.IsZero():
		return "", dErrors.New(dErrors.CodeValidation, "la fecha de creación es requerida")
	case r.FechaInicioPeriodo.IsZero():
		return "", dErrors.New(dErrors.CodeValidation, "la fecha de inicio del periodo es requerida")
	case r.FechaInicioPeriodo.Before(r.FechaCreacion):
		return "", dErrors.New(dErrors.CodeValidation, "el periodo no puede iniciar antes de la fecha de creación")
	case r.TipoJuntaID <= 0:
		return "", dErrors.New(dErrors.CodeValidation, "el tipo de junta es requerido")
	case r.LugarID <= 0:
		return "", dErrors.New(dErrors.CodeValidation, "el municipio es requerido")
	}
	if !r.FechaFinPeriodo.IsZero() && !r.FechaFinPeriodo.Equal(FinPeriodo(r.FechaInicioPeriodo)) {
		return "", dErrors.New(dErrors.CodeBadRequest,
			"la fecha de fin del periodo debe ser cuatro años después del inicio ("+FinPeriodo(r.FechaInicioPeriodo).String()+")")
	}
	return ParseZona(r.Zona)
}

// Apply copies the validated payload onto j and derives the period end.
func (r *JuntaRequest) Apply(j *Junta, zona Zona) {
	j.RazonSocial = r.RazonSocial
	j.Direccion = r.Direccion
	j.NumPersoneriaJuridica = r.NumPersoneriaJuridica
	j.FechaCreacion = r.FechaCreacion
	j.Zona = zona
	j.FechaInicioPeriodo = r.FechaInicioPeriodo
	j.FechaFinPeriodo = FinPeriodo(r.FechaInicioPeriodo)
	j.FechaAsamblea = r.FechaAsamblea
	j.TipoJuntaID = domain.TipoJuntaID(r.TipoJuntaID)
	j.LugarID = domain.LugarID(r.LugarID)
	j.InstitucionID = nil
	if r.InstitucionID != nil {
		id := domain.InstitucionID(*r.InstitucionID)
		j.InstitucionID = &id
	}
}

// CambioPeriodoRequest opens a new period for an active junta.
type CambioPeriodoRequest struct {
	FechaInicioPeriodo domain.Fecha `json:"FechaInicioPeriodo"`
	FechaAsamblea      domain.Fecha `json:"FechaAsamblea"`
}

func (r *CambioPeriodoRequest) Validate(actual *Junta) error {
	if r.FechaInicioPeriodo.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "la fecha de inicio del nuevo periodo es requerida")
	}
	if !r.FechaInicioPeriodo.After(actual.FechaInicioPeriodo) {
		return dErrors.New(dErrors.CodeValidation, "el nuevo periodo debe iniciar después del periodo actual")
	}
	return nil
}

type DisponibilidadResponse struct {
	Disponible bool `json:"disponible"`
}
