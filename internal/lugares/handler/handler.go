package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"juntas/internal/lugares/models"
	"juntas/pkg/domain"
	"juntas/pkg/platform/httputil"
	authmw "juntas/pkg/platform/middleware/auth"
)

type Service interface {
	List(ctx context.Context, f models.Filter) ([]*models.Lugar, error)
	Get(ctx context.Context, id domain.LugarID) (*models.Lugar, error)
	Hijos(ctx context.Context, id domain.LugarID) ([]*models.Lugar, error)
	Arbol(ctx context.Context) ([]*models.Nodo, error)
	Create(ctx context.Context, req models.LugarRequest) (*models.Lugar, error)
	Update(ctx context.Context, id domain.LugarID, req models.LugarRequest) (*models.Lugar, error)
	Delete(ctx context.Context, id domain.LugarID) error
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/lugares", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/arbol", h.handleArbol)
		r.Get("/{id}", h.handleGet)
		r.Get("/{id}/hijos", h.handleHijos)
		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireRoles(h.logger, domain.RolAdministrador))
			r.Post("/", h.handleCreate)
			r.Put("/{id}", h.handleUpdate)
			r.Delete("/{id}", h.handleDelete)
		})
	})
}

// handleList accepts optional ?tipo= and ?padre= filters.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var f models.Filter
	if v := r.URL.Query().Get("tipo"); v != "" {
		tipo, err := models.ParseTipo(v)
		if err != nil {
			httputil.Fail(ctx, h.logger, w, err, "invalid lugares filter")
			return
		}
		f.Tipo = tipo
	}
	if v := r.URL.Query().Get("padre"); v != "" {
		padre, err := domain.ParseLugarID(v)
		if err != nil {
			httputil.Fail(ctx, h.logger, w, err, "invalid lugares filter")
			return
		}
		f.PadreID = &padre
	}
	out, err := h.svc.List(ctx, f)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to list lugares")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleArbol(w http.ResponseWriter, r *http.Request) {
	tree, err := h.svc.Arbol(r.Context())
	if err != nil {
		httputil.Fail(r.Context(), h.logger, w, err, "failed to build lugares tree")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tree)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseLugarID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid lugar id")
		return
	}
	l, err := h.svc.Get(ctx, id)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to get lugar")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, l)
}

func (h *Handler) handleHijos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseLugarID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid lugar id")
		return
	}
	hijos, err := h.svc.Hijos(ctx, id)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to list lugar children")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, hijos)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.LugarRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid lugar request")
		return
	}
	l, err := h.svc.Create(ctx, req)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to create lugar")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, l)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseLugarID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid lugar id")
		return
	}
	var req models.LugarRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid lugar request")
		return
	}
	l, err := h.svc.Update(ctx, id, req)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to update lugar")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, l)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseLugarID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid lugar id")
		return
	}
	if err := h.svc.Delete(ctx, id); err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to delete lugar")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
