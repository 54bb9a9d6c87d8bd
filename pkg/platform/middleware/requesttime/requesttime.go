// Package requesttime captures a single "now" per request so that timestamps
// written during one request (audit events, created_at, certificate dates) agree.
package requesttime

import (
	"net/http"
	"time"

	"juntas/pkg/requestcontext"
)

// Middleware stores the request start time in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
