package auth

import (
	"context"
	"log/slog"
	"net/http"

	"juntas/pkg/domain"
	"juntas/pkg/platform/httputil"
	request "juntas/pkg/platform/middleware/request"
	"juntas/pkg/requestcontext"

	dErrors "juntas/pkg/domain-errors"
)

// Principal is the identity attached to a valid session.
type Principal struct {
	SessionID domain.SessionID
	UsuarioID domain.UsuarioID
	Rol       domain.Rol
	Nombre    string
	Email     string
}

// SessionResolver looks up the principal behind a session cookie.
type SessionResolver interface {
	ResolveSession(ctx context.Context, sessionID domain.SessionID) (*Principal, error)
}

type contextKeyPrincipal struct{}

// GetPrincipal returns the principal loaded by LoadSession, if any.
func GetPrincipal(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(contextKeyPrincipal{}).(*Principal)
	return p, ok && p != nil
}

// WithPrincipal injects a principal the same way LoadSession does.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	ctx = context.WithValue(ctx, contextKeyPrincipal{}, p)
	ctx = requestcontext.WithUsuarioID(ctx, p.UsuarioID)
	ctx = requestcontext.WithRol(ctx, p.Rol)
	ctx = requestcontext.WithSessionID(ctx, p.SessionID)
	return ctx
}

// SessionIDFromRequest reads and parses the session cookie.
func SessionIDFromRequest(r *http.Request, cookieName string) (domain.SessionID, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil || c.Value == "" {
		return domain.SessionID{}, false
	}
	id, err := domain.ParseSessionID(c.Value)
	if err != nil {
		return domain.SessionID{}, false
	}
	return id, true
}

// LoadSession resolves the session cookie when present and never rejects the
// request. Resolution failures leave the request anonymous, so any later
// RequireSession fails closed.
func LoadSession(resolver SessionResolver, cookieName string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID, ok := SessionIDFromRequest(r, cookieName)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			principal, err := resolver.ResolveSession(ctx, sessionID)
			if err != nil {
				if !dErrors.HasCode(err, dErrors.CodeUnauthorized) {
					logger.ErrorContext(ctx, "failed to resolve session",
						"error", err,
						"request_id", request.GetRequestID(ctx),
					)
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, principal)))
		})
	}
}

// RequireSession rejects anonymous requests with 401.
func RequireSession(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if _, ok := GetPrincipal(ctx); !ok {
				logger.WarnContext(ctx, "unauthorized access - missing session",
					"path", r.URL.Path,
					"request_id", request.GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "sesión no válida o expirada"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRoles rejects authenticated users whose role is not allowed with 403.
// It must run after RequireSession.
func RequireRoles(logger *slog.Logger, allowed ...domain.Rol) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			p, ok := GetPrincipal(ctx)
			if !ok {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "sesión no válida o expirada"))
				return
			}
			if !p.Rol.In(allowed...) {
				logger.WarnContext(ctx, "forbidden - role not allowed",
					"rol", p.Rol,
					"usuario_id", p.UsuarioID,
					"path", r.URL.Path,
					"request_id", request.GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "no tiene permisos para esta operación"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
