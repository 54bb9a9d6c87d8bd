package models

import (
	"strings"

	dErrors "juntas/pkg/domain-errors"
)

// Kind names one lookup table. Its value is also the URL segment.
type Kind string

const (
	KindCargo       Kind = "cargos"
	KindComision    Kind = "comisiones"
	KindInstitucion Kind = "instituciones"
	KindTipoJunta   Kind = "tipos-junta"
	KindDocumento   Kind = "documentos"
)

// Codes of the two board types certificates are issued for.
const (
	CodigoJAC = "JAC"
	CodigoJVC = "JVC"
)

var kinds = map[Kind]struct {
	table string
	label string
}{
	KindCargo:       {"cargos", "cargo"},
	KindComision:    {"comisiones", "comisión"},
	KindInstitucion: {"instituciones", "institución"},
	KindTipoJunta:   {"tipos_junta", "tipo de junta"},
	KindDocumento:   {"documentos", "tipo de documento"},
}

func Kinds() []Kind {
	return []Kind{KindCargo, KindComision, KindInstitucion, KindTipoJunta, KindDocumento}
}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.TrimSpace(s))
	if _, ok := kinds[k]; !ok {
		return "", dErrors.New(dErrors.CodeNotFound, "catálogo desconocido")
	}
	return k, nil
}

func (k Kind) IsValid() bool {
	_, ok := kinds[k]
	return ok
}

// Table is the PostgreSQL table backing the kind.
func (k Kind) Table() string { return kinds[k].table }

// Label is the singular Spanish name used in messages.
func (k Kind) Label() string { return kinds[k].label }

// RequiresCodigo reports kinds whose rows are looked up by code.
func (k Kind) RequiresCodigo() bool {
	return k == KindTipoJunta || k == KindDocumento
}

// Item is one row of a lookup table.
type Item struct {
	ID          int64  `json:"id"`
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion,omitempty"`
	Codigo      string `json:"codigo,omitempty"`
}

// ItemRequest is the create/update payload.
type ItemRequest struct {
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion"`
	Codigo      string `json:"codigo"`
}

func (r *ItemRequest) Normalize() {
	r.Nombre = strings.Join(strings.Fields(r.Nombre), " ")
	r.Descripcion = strings.TrimSpace(r.Descripcion)
	r.Codigo = strings.ToUpper(strings.TrimSpace(r.Codigo))
}

func (r *ItemRequest) Validate(kind Kind) error {
	if r.Nombre == "" {
		return dErrors.New(dErrors.CodeValidation, "el nombre es requerido")
	}
	if len(r.Nombre) > 200 {
		return dErrors.New(dErrors.CodeValidation, "el nombre no puede superar 200 caracteres")
	}
	if kind.RequiresCodigo() && r.Codigo == "" {
		return dErrors.New(dErrors.CodeValidation, "el código es requerido para "+kind.Label())
	}
	if len(r.Codigo) > 20 {
		return dErrors.New(dErrors.CodeValidation, "el código no puede superar 20 caracteres")
	}
	return nil
}
