package models

import (
	"strings"

	"juntas/pkg/domain"
	dErrors "juntas/pkg/domain-errors"
)

// Filter narrows every aggregate and listing to a subset of juntas.
type Filter struct {
	ProvinciaID domain.LugarID
	MunicipioID domain.LugarID
	TipoJuntaID domain.TipoJuntaID
	Activo      *bool
}

// Tipo names one aggregate or listing. Its value is the URL segment.
type Tipo string

const (
	TipoEdad        Tipo = "edad"
	TipoGenero      Tipo = "genero"
	TipoComision    Tipo = "comision"
	TipoCargo       Tipo = "cargo"
	TipoProvincia   Tipo = "provincia"
	TipoMunicipio   Tipo = "municipio"
	TipoEstado      Tipo = "estado"
	TipoJuntas      Tipo = "juntas"
	TipoMandatarios Tipo = "mandatarios"
)

var titulos = map[Tipo]string{
	TipoEdad:        "Mandatarios por rango de edad",
	TipoGenero:      "Mandatarios por género",
	TipoComision:    "Mandatarios por comisión",
	TipoCargo:       "Mandatarios por cargo",
	TipoProvincia:   "Juntas por provincia",
	TipoMunicipio:   "Juntas por municipio",
	TipoEstado:      "Juntas por estado",
	TipoJuntas:      "Listado de juntas",
	TipoMandatarios: "Listado de mandatarios",
}

func ParseTipo(s string) (Tipo, error) {
	t := Tipo(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := titulos[t]; !ok {
		return "", dErrors.New(dErrors.CodeNotFound, "reporte desconocido: "+s)
	}
	return t, nil
}

func (t Tipo) Titulo() string { return titulos[t] }

// IsListado reports whether t exports rows rather than counts.
func (t Tipo) IsListado() bool { return t == TipoJuntas || t == TipoMandatarios }

type Formato string

const (
	FormatoCSV  Formato = "csv"
	FormatoXLSX Formato = "xlsx"
	FormatoRTF  Formato = "rtf"
	FormatoPDF  Formato = "pdf"
)

var contentTypes = map[Formato]string{
	FormatoCSV:  "text/csv; charset=utf-8",
	FormatoXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	FormatoRTF:  "application/rtf",
	FormatoPDF:  "application/pdf",
}

// ParseFormato defaults to xlsx when s is empty.
func ParseFormato(s string) (Formato, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FormatoXLSX, nil
	}
	f := Formato(s)
	if _, ok := contentTypes[f]; !ok {
		return "", dErrors.New(dErrors.CodeValidation, "formato inválido: debe ser csv, xlsx, rtf o pdf")
	}
	return f, nil
}

func (f Formato) ContentType() string { return contentTypes[f] }

// Rango edad labels, in display order.
const (
	Rango14a17 = "14-17"
	Rango18a28 = "18-28"
	Rango29a59 = "29-59"
	Rango60    = "60+"
)

func RangosEdad() []string { return []string{Rango14a17, Rango18a28, Rango29a59, Rango60} }

// RangoEdad returns the bracket for age, or "" below the minimum age.
func RangoEdad(edad int) string {
	switch {
	case edad < 14:
		return ""
	case edad <= 17:
		return Rango14a17
	case edad <= 28:
		return Rango18a28
	case edad <= 59:
		return Rango29a59
	}
	return Rango60
}

type Conteo struct {
	Etiqueta string `json:"etiqueta"`
	Total    int    `json:"total"`
}

type Resumen struct {
	TotalJuntas      int      `json:"totalJuntas"`
	TotalMandatarios int      `json:"totalMandatarios"`
	Edad             []Conteo `json:"edad"`
	Genero           []Conteo `json:"genero"`
	Comision         []Conteo `json:"comision"`
	Cargo            []Conteo `json:"cargo"`
	Provincia        []Conteo `json:"provincia"`
	Municipio        []Conteo `json:"municipio"`
	Estado           []Conteo `json:"estado"`
}

// Conteos returns the aggregate named t.
func (r *Resumen) Conteos(t Tipo) []Conteo {
	switch t {
	case TipoEdad:
		return r.Edad
	case TipoGenero:
		return r.Genero
	case TipoComision:
		return r.Comision
	case TipoCargo:
		return r.Cargo
	case TipoProvincia:
		return r.Provincia
	case TipoMunicipio:
		return r.Municipio
	case TipoEstado:
		return r.Estado
	}
	return nil
}

// Tabla is the format-neutral shape every export renders.
type Tabla struct {
	Titulo   string
	Columnas []string
	Filas    [][]string
}

// Archivo is a rendered export ready to download.
type Archivo struct {
	Nombre      string
	ContentType string
	Body        []byte
}
