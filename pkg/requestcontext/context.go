// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; services read them without importing net/http.
//
//	usuarioID := requestcontext.UsuarioID(ctx)
//	now := requestcontext.Now(ctx)
//
// Tests inject values directly:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	"juntas/pkg/domain"
)

type (
	usuarioIDKey   struct{}
	rolKey         struct{}
	sessionIDKey   struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

var (
	ContextKeyUsuarioID   = usuarioIDKey{}
	ContextKeyRol         = rolKey{}
	ContextKeySessionID   = sessionIDKey{}
	ContextKeyClientIP    = clientIPKey{}
	ContextKeyUserAgent   = userAgentKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// -----------------------------------------------------------------------------
// Session
// -----------------------------------------------------------------------------

// UsuarioID returns the authenticated user, or zero when the request is anonymous.
func UsuarioID(ctx context.Context) domain.UsuarioID {
	if v, ok := ctx.Value(ContextKeyUsuarioID).(domain.UsuarioID); ok {
		return v
	}
	return 0
}

func WithUsuarioID(ctx context.Context, id domain.UsuarioID) context.Context {
	return context.WithValue(ctx, ContextKeyUsuarioID, id)
}

// Rol returns the authenticated user's role, or "" when anonymous.
func Rol(ctx context.Context) domain.Rol {
	if v, ok := ctx.Value(ContextKeyRol).(domain.Rol); ok {
		return v
	}
	return ""
}

func WithRol(ctx context.Context, rol domain.Rol) context.Context {
	return context.WithValue(ctx, ContextKeyRol, rol)
}

func SessionID(ctx context.Context) domain.SessionID {
	if v, ok := ctx.Value(ContextKeySessionID).(domain.SessionID); ok {
		return v
	}
	return domain.SessionID{}
}

func WithSessionID(ctx context.Context, id domain.SessionID) context.Context {
	return context.WithValue(ctx, ContextKeySessionID, id)
}

// -----------------------------------------------------------------------------
// Client metadata (IP, User-Agent)
// -----------------------------------------------------------------------------

func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(ContextKeyUserAgent).(string); ok {
		return ua
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent into a context.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyClientIP, clientIP)
	ctx = context.WithValue(ctx, ContextKeyUserAgent, userAgent)
	return ctx
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now returns the request-scoped time, falling back to time.Now() outside HTTP
// requests (CLI commands, tests, background goroutines).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
