package domain

import dErrors "juntas/pkg/domain-errors"

// Rol is the access role attached to a Usuario.
// Invariant: one of the values below; construct with ParseRol at trust boundaries.
type Rol string

const (
	RolAdministrador Rol = "Administrador"
	RolAuxiliar      Rol = "Auxiliar"
	RolMandatario    Rol = "Mandatario"
	RolConsulta      Rol = "Consulta"
)

var validRoles = map[Rol]bool{
	RolAdministrador: true,
	RolAuxiliar:      true,
	RolMandatario:    true,
	RolConsulta:      true,
}

// Roles lists every role in display order.
func Roles() []Rol {
	return []Rol{RolAdministrador, RolAuxiliar, RolMandatario, RolConsulta}
}

func ParseRol(s string) (Rol, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "el rol es requerido")
	}
	r := Rol(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "rol inválido: "+s)
	}
	return r, nil
}

func (r Rol) IsValid() bool { return validRoles[r] }

// RequiresSignature reports whether users with this role must upload a
// signature image. Mandatario users sign the certificates they issue.
func (r Rol) RequiresSignature() bool { return r == RolMandatario }

func (r Rol) String() string { return string(r) }

// In reports whether r is one of allowed.
func (r Rol) In(allowed ...Rol) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}
