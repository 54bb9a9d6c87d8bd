package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"juntas/internal/catalogo/models"
	"juntas/pkg/domain"
	"juntas/pkg/platform/httputil"
	authmw "juntas/pkg/platform/middleware/auth"
)

type Service interface {
	List(ctx context.Context, kind models.Kind) ([]*models.Item, error)
	Get(ctx context.Context, kind models.Kind, id int64) (*models.Item, error)
	Create(ctx context.Context, kind models.Kind, req models.ItemRequest) (*models.Item, error)
	Update(ctx context.Context, kind models.Kind, id int64, req models.ItemRequest) (*models.Item, error)
	Delete(ctx context.Context, kind models.Kind, id int64) error
}

// Handler serves one resource per lookup table: /cargos, /comisiones,
// /instituciones, /tipos-junta and /documentos.
type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the catalog routes. Callers are expected to have
// applied RequireSession already; writes are Administrador only.
func (h *Handler) Register(r chi.Router) {
	for _, kind := range models.Kinds() {
		r.Route("/"+string(kind), func(r chi.Router) {
			r.Get("/", h.handleList(kind))
			r.Get("/{id}", h.handleGet(kind))
			r.Group(func(r chi.Router) {
				r.Use(authmw.RequireRoles(h.logger, domain.RolAdministrador))
				r.Post("/", h.handleCreate(kind))
				r.Put("/{id}", h.handleUpdate(kind))
				r.Delete("/{id}", h.handleDelete(kind))
			})
		})
	}
}

func (h *Handler) handleList(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.svc.List(r.Context(), kind)
		if err != nil {
			h.writeError(r.Context(), w, err, "list")
			return
		}
		httputil.WriteJSON(w, http.StatusOK, items)
	}
}

func (h *Handler) handleGet(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := domain.ParseSerial(chi.URLParam(r, "id"))
		if err != nil {
			h.writeError(r.Context(), w, err, "get")
			return
		}
		item, err := h.svc.Get(r.Context(), kind, id)
		if err != nil {
			h.writeError(r.Context(), w, err, "get")
			return
		}
		httputil.WriteJSON(w, http.StatusOK, item)
	}
}

func (h *Handler) handleCreate(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.ItemRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			h.writeError(r.Context(), w, err, "create")
			return
		}
		item, err := h.svc.Create(r.Context(), kind, req)
		if err != nil {
			h.writeError(r.Context(), w, err, "create")
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, item)
	}
}

func (h *Handler) handleUpdate(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := domain.ParseSerial(chi.URLParam(r, "id"))
		if err != nil {
			h.writeError(r.Context(), w, err, "update")
			return
		}
		var req models.ItemRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			h.writeError(r.Context(), w, err, "update")
			return
		}
		item, err := h.svc.Update(r.Context(), kind, id, req)
		if err != nil {
			h.writeError(r.Context(), w, err, "update")
			return
		}
		httputil.WriteJSON(w, http.StatusOK, item)
	}
}

func (h *Handler) handleDelete(kind models.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := domain.ParseSerial(chi.URLParam(r, "id"))
		if err != nil {
			h.writeError(r.Context(), w, err, "delete")
			return
		}
		if err := h.svc.Delete(r.Context(), kind, id); err != nil {
			h.writeError(r.Context(), w, err, "delete")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	httputil.Fail(ctx, h.logger, w, err, "catalog "+op+" failed")
}
