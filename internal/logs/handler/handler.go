// Package handler serves the Logs page: a filtered listing of persisted
// audit events and a websocket that streams new ones.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"juntas/internal/logs/models"
	"juntas/pkg/domain"
	dErrors "juntas/pkg/domain-errors"
	audit "juntas/pkg/platform/audit"
	"juntas/pkg/platform/audit/hub"
	"juntas/pkg/platform/httputil"
	authmw "juntas/pkg/platform/middleware/auth"
	strutil "juntas/pkg/platform/strings"
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

type Store interface {
	ListByUsuario(ctx context.Context, usuarioID domain.UsuarioID) ([]audit.Event, error)
	ListByActions(ctx context.Context, actions []string, limit int) ([]audit.Event, error)
}

type Hub interface {
	SubscribeWithBacklog(buffer, n int) (*hub.Subscription, []audit.Event)
}

type Handler struct {
	store    Store
	hub      Hub
	logger   *slog.Logger
	upgrader websocket.Upgrader
	buffer   int
}

type Option func(*Handler)

// WithAllowedOrigins restricts websocket upgrades to the given origins.
// Without it the upgrader only accepts same-host origins.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Handler) {
		if len(origins) == 0 {
			return
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(origins, origin)
		}
	}
}

// WithSubscriberBuffer sets how many events a slow client may lag behind.
func WithSubscriberBuffer(n int) Option {
	return func(h *Handler) { h.buffer = n }
}

func New(store Store, hub Hub, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		store:  store,
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		buffer: 64,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts /logs for Administrador only.
func (h *Handler) Register(r chi.Router) {
	r.Route("/logs", func(r chi.Router) {
		r.Use(authmw.RequireRoles(h.logger, domain.RolAdministrador))
		r.Get("/", h.handleList)
		r.Get("/stream", h.handleStream)
	})
}

// handleList accepts ?usuario=, ?accion= (comma separated) and ?limit=.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	limit := defaultLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httputil.Fail(ctx, h.logger, w, dErrors.New(dErrors.CodeInvalidInput, "limit debe ser un entero positivo"), "invalid logs limit")
			return
		}
		limit = min(n, maxLimit)
	}

	var (
		events []audit.Event
		err    error
	)
	if v := q.Get("usuario"); v != "" {
		id, perr := domain.ParseUsuarioID(v)
		if perr != nil {
			httputil.Fail(ctx, h.logger, w, perr, "invalid usuario filter")
			return
		}
		events, err = h.store.ListByUsuario(ctx, id)
		slices.Reverse(events)
		if len(events) > limit {
			events = events[:limit]
		}
	} else {
		events, err = h.store.ListByActions(ctx, strutil.SplitList(q.Get("accion")), limit)
	}
	if err != nil {
		httputil.Fail(ctx, h.logger, w, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudieron cargar los registros"), "failed to list audit events")
		return
	}
	entries := models.FromEvents(events)
	httputil.WriteJSON(w, http.StatusOK, models.ListResponse{Entries: entries, Total: len(entries)})
}
