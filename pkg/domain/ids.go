// Package domain holds identifier and enum value types shared across contexts.
//
// Integer identifiers map to BIGSERIAL primary keys. Certificates and sessions
// use UUIDs because their identifiers leave the system (QR codes, cookies).
package domain

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	dErrors "juntas/pkg/domain-errors"
)

type (
	UsuarioID     int64
	JuntaID       int64
	MandatarioID  int64
	LugarID       int64
	CargoID       int64
	ComisionID    int64
	InstitucionID int64
	TipoJuntaID   int64
	DocumentoID   int64
)

// CertificadoID is the public identifier printed in certificate QR codes.
type CertificadoID uuid.UUID

// SessionID identifies a login session stored server-side.
type SessionID uuid.UUID

func parseSerial(s, name string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, name+" es requerido")
	}
	if len(s) > 19 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, name+" inválido")
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, name+" inválido")
	}
	return v, nil
}

func ParseUsuarioID(s string) (UsuarioID, error) {
	v, err := parseSerial(s, "id de usuario")
	return UsuarioID(v), err
}

func ParseJuntaID(s string) (JuntaID, error) {
	v, err := parseSerial(s, "id de junta")
	return JuntaID(v), err
}

func ParseMandatarioID(s string) (MandatarioID, error) {
	v, err := parseSerial(s, "id de mandatario")
	return MandatarioID(v), err
}

func ParseLugarID(s string) (LugarID, error) {
	v, err := parseSerial(s, "id de lugar")
	return LugarID(v), err
}

// ParseSerial parses a generic positive integer identifier. Catalog
// handlers use it because they serve several lookup tables.
func ParseSerial(s string) (int64, error) {
	return parseSerial(s, "id")
}

func parseUUID(s, name string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, name+" es requerido")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, name+" inválido")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, name+" inválido")
	}
	return u, nil
}

func ParseCertificadoID(s string) (CertificadoID, error) {
	u, err := parseUUID(s, "id de certificado")
	return CertificadoID(u), err
}

func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "id de sesión")
	return SessionID(u), err
}

func NewCertificadoID() CertificadoID { return CertificadoID(uuid.New()) }
func NewSessionID() SessionID         { return SessionID(uuid.New()) }

func (id CertificadoID) String() string { return uuid.UUID(id).String() }
func (id CertificadoID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id CertificadoID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *CertificadoID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = CertificadoID(u)
	return nil
}

func (id SessionID) String() string { return uuid.UUID(id).String() }
func (id SessionID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id UsuarioID) String() string    { return strconv.FormatInt(int64(id), 10) }
func (id JuntaID) String() string      { return strconv.FormatInt(int64(id), 10) }
func (id MandatarioID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id LugarID) String() string      { return strconv.FormatInt(int64(id), 10) }
