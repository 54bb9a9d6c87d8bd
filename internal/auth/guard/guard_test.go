package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"juntas/pkg/domain"
)

func rol(r domain.Rol) *domain.Rol { return &r }

func TestDecide(t *testing.T) {
	tests := []struct {
		name    string
		rol     *domain.Rol
		allowed []domain.Rol
		want    Decision
	}{
		{"no session", nil, nil, Decision{Estado: Unauthenticated, Redirect: "/login"}},
		{"unknown role fails closed", rol("Invitado"), nil, Decision{Estado: Unauthenticated, Redirect: "/login"}},
		{"any role when list empty", rol(domain.RolConsulta), nil, Decision{Estado: Authorized}},
		{"role not allowed", rol(domain.RolConsulta), []domain.Rol{domain.RolAdministrador}, Decision{Estado: Unauthorized, Redirect: "/"}},
		{"role allowed", rol(domain.RolAuxiliar), []domain.Rol{domain.RolAdministrador, domain.RolAuxiliar}, Decision{Estado: Authorized}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.rol, tt.allowed))
		})
	}
}

func TestAccess(t *testing.T) {
	t.Run("consulta cannot open user creation", func(t *testing.T) {
		got := Access(rol(domain.RolConsulta), "/usuarios/crear")
		assert.Equal(t, Decision{Estado: Unauthorized, Redirect: "/"}, got)
	})

	t.Run("administrador can", func(t *testing.T) {
		assert.Equal(t, Authorized, Access(rol(domain.RolAdministrador), "/usuarios/crear").Estado)
	})

	t.Run("anonymous is sent to login", func(t *testing.T) {
		assert.Equal(t, Decision{Estado: Unauthenticated, Redirect: "/login"}, Access(nil, "/juntas"))
	})

	t.Run("public routes need no session", func(t *testing.T) {
		assert.Equal(t, Authorized, Access(nil, "/validar/9b2f").Estado)
	})

	t.Run("prefix does not match sibling names", func(t *testing.T) {
		assert.Equal(t, "/", Lookup("/usuariosx").Prefix)
		assert.Equal(t, "/usuarios", Lookup("usuarios/../usuarios/3").Prefix)
	})

	t.Run("mandatario may issue certificates but not edit juntas", func(t *testing.T) {
		assert.Equal(t, Authorized, Access(rol(domain.RolMandatario), "/certificados").Estado)
		assert.Equal(t, Unauthorized, Access(rol(domain.RolMandatario), "/juntas/editar/4").Estado)
		assert.Equal(t, Authorized, Access(rol(domain.RolMandatario), "/juntas/4").Estado)
	})
}
