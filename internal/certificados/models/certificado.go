package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"juntas/pkg/domain"
	dErrors "juntas/pkg/domain-errors"
	strutil "juntas/pkg/platform/strings"
)

type Tipo string

const (
	TipoAutoresolutorio Tipo = "autoresolutorio"
	TipoJAC             Tipo = "jac"
	TipoJVC             Tipo = "jvc"
)

func ParseTipo(s string) (Tipo, error) {
	switch t := Tipo(strings.ToLower(strings.TrimSpace(s))); t {
	case TipoAutoresolutorio, TipoJAC, TipoJVC:
		return t, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "tipo de certificado inválido: debe ser autoresolutorio, jac o jvc")
}

// CodigoTipoJunta is the tipo de junta code a jac or jvc certificate
// requires. Autoresolutorio has none.
func (t Tipo) CodigoTipoJunta() string {
	if t == TipoAutoresolutorio {
		return ""
	}
	return strings.ToUpper(string(t))
}

func (t Tipo) Titulo() string {
	switch t {
	case TipoJAC:
		return "CERTIFICADO DE EXISTENCIA Y REPRESENTACIÓN LEGAL - JUNTA DE ACCIÓN COMUNAL"
	case TipoJVC:
		return "CERTIFICADO DE EXISTENCIA Y REPRESENTACIÓN LEGAL - JUNTA DE VIVIENDA COMUNITARIA"
	}
	return "AUTO RESOLUTORIO DE INSCRIPCIÓN DE DIGNATARIO"
}

// Datos is the snapshot printed on the certificate, kept so validation shows
// what was certified even after the records change.
type Datos struct {
	RazonSocial           string       `json:"razonSocial"`
	NumPersoneriaJuridica string       `json:"numPersoneriaJuridica"`
	TipoJunta             string       `json:"tipoJunta"`
	Municipio             string       `json:"municipio"`
	Provincia             string       `json:"provincia,omitempty"`
	FechaInicioPeriodo    domain.Fecha `json:"fechaInicioPeriodo"`
	FechaFinPeriodo       domain.Fecha `json:"fechaFinPeriodo"`
	Mandatario            string       `json:"mandatario,omitempty"`
	Documento             string       `json:"documento,omitempty"`
	Cargo                 string       `json:"cargo,omitempty"`
	EmitidoPor            string       `json:"emitidoPor"`
}

func (d *Datos) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*d = Datos{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("scan datos: unsupported type %T", src)
	}
	return json.Unmarshal(b, d)
}

func (d Datos) Value() (driver.Value, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

type Certificado struct {
	ID           domain.CertificadoID `json:"id"`
	Tipo         Tipo                 `json:"tipo"`
	JuntaID      domain.JuntaID       `json:"juntaId"`
	MandatarioID *domain.MandatarioID `json:"mandatarioId,omitempty"`
	Documento    string               `json:"documento,omitempty"`
	EmitidoPor   domain.UsuarioID     `json:"emitidoPor"`
	EmitidoEn    time.Time            `json:"emitidoEn"`
	Datos        Datos                `json:"datos"`
}

// Filename is the download name: certificado-<tipo>-<slug>.pdf, where the
// slug comes from the mandatario for autoresolutorio and the junta otherwise.
func (c *Certificado) Filename() string {
	base := c.Datos.RazonSocial
	if c.Tipo == TipoAutoresolutorio && c.Datos.Mandatario != "" {
		base = c.Datos.Mandatario
	}
	slug := strutil.Slug(base)
	if slug == "" {
		slug = c.ID.String()
	}
	return fmt.Sprintf("certificado-%s-%s.pdf", c.Tipo, slug)
}

type EmitirRequest struct {
	Tipo      string `json:"tipo"`
	Documento string `json:"documento"`
	JuntaID   int64  `json:"juntaId"`
}

// Validate returns the parsed tipo and checks the target matching it is set.
func (r *EmitirRequest) Validate() (Tipo, error) {
	tipo, err := ParseTipo(r.Tipo)
	if err != nil {
		return "", err
	}
	r.Documento = strings.TrimSpace(r.Documento)
	switch tipo {
	case TipoAutoresolutorio:
		if r.Documento == "" {
			return "", dErrors.New(dErrors.CodeValidation, "el documento del mandatario es requerido")
		}
	default:
		if r.JuntaID <= 0 {
			return "", dErrors.New(dErrors.CodeValidation, "la junta es requerida")
		}
	}
	return tipo, nil
}

// Emision is an issued certificate and its rendered PDF.
type Emision struct {
	Certificado *Certificado
	PDF         []byte
}

// Validacion is the public answer to a QR scan.
type Validacion struct {
	Valido  bool         `json:"valido"`
	Data    *Certificado `json:"data,omitempty"`
	Mensaje string       `json:"mensaje,omitempty"`
}
