package testutil

import (
	"net/http"

	"juntas/pkg/domain"
	authmw "juntas/pkg/platform/middleware/auth"
)

// AsRol attaches an authenticated principal to the request the same way the
// session middleware would.
func AsRol(req *http.Request, usuarioID domain.UsuarioID, rol domain.Rol) *http.Request {
	p := &authmw.Principal{
		SessionID: domain.NewSessionID(),
		UsuarioID: usuarioID,
		Rol:       rol,
	}
	return req.WithContext(authmw.WithPrincipal(req.Context(), p))
}

// AsAdmin is AsRol with an Administrador user.
func AsAdmin(req *http.Request) *http.Request {
	return AsRol(req, 1, domain.RolAdministrador)
}
