package models

import (
	"strings"

	"juntas/pkg/domain"
	dErrors "juntas/pkg/domain-errors"
)

// Tipo is the level of a place in the Departamento → Provincia → Municipio
// hierarchy.
type Tipo string

const (
	TipoDepartamento Tipo = "Departamento"
	TipoProvincia    Tipo = "Provincia"
	TipoMunicipio    Tipo = "Municipio"
)

func ParseTipo(s string) (Tipo, error) {
	switch t := Tipo(strings.TrimSpace(s)); t {
	case TipoDepartamento, TipoProvincia, TipoMunicipio:
		return t, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "tipo de lugar inválido: "+s)
}

// ParentTipo returns the tipo the parent must have. Departamentos have none.
func (t Tipo) ParentTipo() (Tipo, bool) {
	switch t {
	case TipoProvincia:
		return TipoDepartamento, true
	case TipoMunicipio:
		return TipoProvincia, true
	}
	return "", false
}

type Lugar struct {
	ID         domain.LugarID  `json:"id"`
	Nombre     string          `json:"nombre"`
	Tipo       Tipo            `json:"tipo"`
	PadreID    *domain.LugarID `json:"padreId,omitempty"`
	CodigoDane string          `json:"codigoDane,omitempty"`
}

// Nodo is a Lugar with its children, used by the tree endpoint.
type Nodo struct {
	*Lugar
	Hijos []*Nodo `json:"hijos,omitempty"`
}

type Filter struct {
	Tipo    Tipo
	PadreID *domain.LugarID
}

type LugarRequest struct {
	Nombre     string `json:"nombre"`
	Tipo       string `json:"tipo"`
	PadreID    *int64 `json:"padreId"`
	CodigoDane string `json:"codigoDane"`
}

func (r *LugarRequest) Normalize() {
	r.Nombre = strings.Join(strings.Fields(r.Nombre), " ")
	r.Tipo = strings.TrimSpace(r.Tipo)
	r.CodigoDane = strings.TrimSpace(r.CodigoDane)
	if r.PadreID != nil && *r.PadreID == 0 {
		r.PadreID = nil
	}
}

// Validate checks the shape of the request. Parent existence and tipo are
// checked by the service against the store.
func (r *LugarRequest) Validate() (Tipo, error) {
	if r.Nombre == "" {
		return "", dErrors.New(dErrors.CodeValidation, "el nombre es requerido")
	}
	tipo, err := ParseTipo(r.Tipo)
	if err != nil {
		return "", err
	}
	_, needsParent := tipo.ParentTipo()
	if needsParent && r.PadreID == nil {
		return "", dErrors.New(dErrors.CodeValidation, "un lugar de tipo "+string(tipo)+" requiere lugar padre")
	}
	if !needsParent && r.PadreID != nil {
		return "", dErrors.New(dErrors.CodeValidation, "un departamento no puede tener lugar padre")
	}
	if r.CodigoDane != "" {
		for _, c := range r.CodigoDane {
			if c < '0' || c > '9' {
				return "", dErrors.New(dErrors.CodeValidation, "el código DANE debe ser numérico")
			}
		}
	}
	return tipo, nil
}

func (r *LugarRequest) Padre() *domain.LugarID {
	if r.PadreID == nil {
		return nil
	}
	id := domain.LugarID(*r.PadreID)
	return &id
}
