// Package httpapi assembles the chi router: shared middleware, the public
// and session-protected route groups, health and metrics.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"juntas/internal/platform/metrics"
	"juntas/pkg/platform/httputil"
	authmw "juntas/pkg/platform/middleware/auth"
	"juntas/pkg/platform/middleware/metadata"
	"juntas/pkg/platform/middleware/request"
	"juntas/pkg/platform/middleware/requesttime"
)

// Routes is implemented by every domain handler.
type Routes interface {
	Register(r chi.Router)
}

// PublicRoutes exposes the parts of a handler that need no session.
type PublicRoutes interface {
	RegisterPublic(r chi.Router)
}

// HealthCheck reports one dependency's readiness.
type HealthCheck func(ctx context.Context) error

type Config struct {
	BasePath       string
	CORSOrigins    []string
	RequestTimeout time.Duration
	SessionCookie  string
}

type Deps struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Sessions authmw.SessionResolver
	Health   map[string]HealthCheck

	// Public routes need no session (login, QR validation).
	Public      []Routes
	PublicParts []PublicRoutes
	// Protected routes run behind RequireSession and the request timeout.
	Protected []Routes
	// Streams are protected but long-lived, so they skip the timeout.
	Streams []Routes
}

func NewRouter(cfg Config, d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.Recovery(d.Logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Logger(d.Logger))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", request.HeaderRequestID},
		ExposedHeaders:   []string{"Content-Disposition", request.HeaderRequestID, "X-Certificado-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler(d.Health))
	r.Handle("/metrics", promhttp.Handler())

	api := chi.NewRouter()
	api.Use(authmw.LoadSession(d.Sessions, cfg.SessionCookie, d.Logger))
	api.Group(func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(chimw.Timeout(cfg.RequestTimeout))
		}
		for _, h := range d.Public {
			h.Register(r)
		}
		for _, h := range d.PublicParts {
			h.RegisterPublic(r)
		}
		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireSession(d.Logger))
			for _, h := range d.Protected {
				h.Register(r)
			}
		})
	})
	api.Group(func(r chi.Router) {
		r.Use(authmw.RequireSession(d.Logger))
		for _, h := range d.Streams {
			h.Register(r)
		}
	})

	if cfg.BasePath == "" {
		r.Mount("/", api)
	} else {
		r.Mount(cfg.BasePath, api)
	}
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// healthHandler answers 503 when any dependency check fails.
func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
