// Package guard decides whether a session may open a client route. The SPA
// asks through GET /auth/access; API routes use the auth middleware instead.
package guard

import (
	"path"
	"strings"

	"juntas/pkg/domain"
)

type Estado string

const (
	Unauthenticated Estado = "unauthenticated"
	Unauthorized    Estado = "unauthorized"
	Authorized      Estado = "authorized"
)

// Decision is the outcome for one route. Redirect is empty when authorized.
type Decision struct {
	Estado   Estado `json:"estado"`
	Redirect string `json:"redirect,omitempty"`
}

const (
	loginPath = "/login"
	homePath  = "/"
)

// Decide evaluates a session against allowed. A nil rol means the session
// could not be loaded, which fails closed. An empty allowed list admits any
// authenticated role.
func Decide(rol *domain.Rol, allowed []domain.Rol) Decision {
	if rol == nil || !rol.IsValid() {
		return Decision{Estado: Unauthenticated, Redirect: loginPath}
	}
	if len(allowed) > 0 && !rol.In(allowed...) {
		return Decision{Estado: Unauthorized, Redirect: homePath}
	}
	return Decision{Estado: Authorized}
}

// Route is an entry of the client route table. Prefix matches the route and
// anything below it.
type Route struct {
	Prefix  string
	Public  bool
	Allowed []domain.Rol
}

var (
	gestion = []domain.Rol{domain.RolAdministrador, domain.RolAuxiliar}
	admin   = []domain.Rol{domain.RolAdministrador}
)

// Routes lists the client routes, most specific first.
var Routes = []Route{
	{Prefix: "/login", Public: true},
	{Prefix: "/restablecer", Public: true},
	{Prefix: "/validar", Public: true},

	{Prefix: "/usuarios", Allowed: admin},
	{Prefix: "/logs", Allowed: admin},
	{Prefix: "/lugares/crear", Allowed: admin},
	{Prefix: "/catalogos", Allowed: admin},

	{Prefix: "/juntas/crear", Allowed: gestion},
	{Prefix: "/juntas/editar", Allowed: gestion},
	{Prefix: "/mandatarios/crear", Allowed: gestion},
	{Prefix: "/mandatarios/editar", Allowed: gestion},
	{Prefix: "/certificados", Allowed: []domain.Rol{domain.RolAdministrador, domain.RolAuxiliar, domain.RolMandatario}},
	{Prefix: "/reportes", Allowed: []domain.Rol{domain.RolAdministrador, domain.RolAuxiliar, domain.RolConsulta}},

	{Prefix: "/"},
}

func matches(prefix, ruta string) bool {
	if prefix == "/" {
		return true
	}
	return ruta == prefix || strings.HasPrefix(ruta, prefix+"/")
}

// Lookup returns the first route matching ruta after cleaning it.
func Lookup(ruta string) Route {
	ruta = path.Clean("/" + strings.TrimSpace(ruta))
	for _, r := range Routes {
		if matches(r.Prefix, ruta) {
			return r
		}
	}
	return Routes[len(Routes)-1]
}

// Access combines Lookup and Decide.
func Access(rol *domain.Rol, ruta string) Decision {
	r := Lookup(ruta)
	if r.Public {
		return Decision{Estado: Authorized}
	}
	return Decide(rol, r.Allowed)
}
