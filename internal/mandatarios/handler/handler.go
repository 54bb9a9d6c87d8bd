package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"juntas/internal/mandatarios/models"
	"juntas/pkg/domain"
	"juntas/pkg/platform/httputil"
	authmw "juntas/pkg/platform/middleware/auth"
)

type Service interface {
	List(ctx context.Context, f models.Filter) ([]*models.Mandatario, error)
	Get(ctx context.Context, id domain.MandatarioID) (*models.Mandatario, error)
	Buscar(ctx context.Context, documento string, junta domain.JuntaID) (*models.Busqueda, error)
	Create(ctx context.Context, req models.MandatarioRequest) (*models.Mandatario, error)
	Update(ctx context.Context, id domain.MandatarioID, req models.MandatarioRequest) (*models.Mandatario, error)
	Asignar(ctx context.Context, id domain.MandatarioID, req models.AsignacionRequest) (*models.Mandatario, error)
	Delete(ctx context.Context, id domain.MandatarioID) error
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/mandatarios", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/buscar", h.handleBuscar)
		r.Get("/{id}", h.handleGet)
		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireRoles(h.logger, domain.RolAdministrador, domain.RolAuxiliar))
			r.Post("/", h.handleCreate)
			r.Put("/{id}", h.handleUpdate)
			r.Patch("/{id}/asignacion", h.handleAsignar)
		})
		r.With(authmw.RequireRoles(h.logger, domain.RolAdministrador)).Delete("/{id}", h.handleDelete)
	})
}

func parseFilter(r *http.Request) (models.Filter, error) {
	q := r.URL.Query()
	f := models.Filter{Documento: q.Get("documento")}
	if v := q.Get("junta"); v != "" {
		id, err := domain.ParseJuntaID(v)
		if err != nil {
			return f, err
		}
		f.JuntaID = id
	}
	if v := q.Get("cargo"); v != "" {
		id, err := domain.ParseSerial(v)
		if err != nil {
			return f, err
		}
		f.CargoID = domain.CargoID(id)
	}
	if v := q.Get("comision"); v != "" {
		id, err := domain.ParseSerial(v)
		if err != nil {
			return f, err
		}
		f.ComisionID = domain.ComisionID(id)
	}
	return f, nil
}

// handleList accepts ?junta=, ?documento=, ?cargo= and ?comision=.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f, err := parseFilter(r)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid mandatarios filter")
		return
	}
	out, err := h.svc.List(ctx, f)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to list mandatarios")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleBuscar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var junta domain.JuntaID
	if v := r.URL.Query().Get("junta"); v != "" {
		id, err := domain.ParseJuntaID(v)
		if err != nil {
			httputil.Fail(ctx, h.logger, w, err, "invalid junta")
			return
		}
		junta = id
	}
	out, err := h.svc.Buscar(ctx, r.URL.Query().Get("documento"), junta)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to search mandatario")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) mandatarioID(w http.ResponseWriter, r *http.Request) (domain.MandatarioID, bool) {
	id, err := domain.ParseMandatarioID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Fail(r.Context(), h.logger, w, err, "invalid mandatario id")
		return 0, false
	}
	return id, true
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.mandatarioID(w, r)
	if !ok {
		return
	}
	m, err := h.svc.Get(r.Context(), id)
	if err != nil {
		httputil.Fail(r.Context(), h.logger, w, err, "failed to get mandatario")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.MandatarioRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid mandatario request")
		return
	}
	m, err := h.svc.Create(ctx, req)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to create mandatario")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.mandatarioID(w, r)
	if !ok {
		return
	}
	var req models.MandatarioRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid mandatario request")
		return
	}
	m, err := h.svc.Update(ctx, id, req)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to update mandatario")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) handleAsignar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.mandatarioID(w, r)
	if !ok {
		return
	}
	var req models.AsignacionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid asignacion request")
		return
	}
	m, err := h.svc.Asignar(ctx, id, req)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to assign mandatario")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.mandatarioID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		httputil.Fail(r.Context(), h.logger, w, err, "failed to delete mandatario")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
