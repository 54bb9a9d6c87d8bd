package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"juntas/internal/juntas/models"
	"juntas/pkg/domain"
	dErrors "juntas/pkg/domain-errors"
	"juntas/pkg/platform/httputil"
	authmw "juntas/pkg/platform/middleware/auth"
)

type Service interface {
	List(ctx context.Context, f models.Filter) ([]*models.Junta, error)
	Detalle(ctx context.Context, id domain.JuntaID) (*models.Detalle, error)
	Historial(ctx context.Context, id domain.JuntaID) ([]*models.Junta, error)
	PersoneriaDisponible(ctx context.Context, num string, excluir domain.JuntaID) (bool, error)
	Create(ctx context.Context, req models.JuntaRequest) (*models.Junta, error)
	Update(ctx context.Context, id domain.JuntaID, req models.JuntaRequest) (*models.Junta, error)
	Delete(ctx context.Context, id domain.JuntaID) error
	CambiarPeriodo(ctx context.Context, id domain.JuntaID, req models.CambioPeriodoRequest) (*models.Junta, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts /juntas. Reads are open to every role; writes need
// Administrador or Auxiliar, and deletion Administrador.
func (h *Handler) Register(r chi.Router) {
	r.Route("/juntas", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/verificar-personeria", h.handleVerificarPersoneria)
		r.Get("/{id}", h.handleGet)
		r.Get("/{id}/historial", h.handleHistorial)
		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireRoles(h.logger, domain.RolAdministrador, domain.RolAuxiliar))
			r.Post("/", h.handleCreate)
			r.Put("/{id}", h.handleUpdate)
			r.Post("/{id}/cambiar-periodo", h.handleCambiarPeriodo)
		})
		r.With(authmw.RequireRoles(h.logger, domain.RolAdministrador)).Delete("/{id}", h.handleDelete)
	})
}

func parseFilter(r *http.Request) (models.Filter, error) {
	q := r.URL.Query()
	f := models.Filter{Q: q.Get("q")}
	if v := q.Get("activo"); v != "" {
		activo, err := strconv.ParseBool(v)
		if err != nil {
			return f, dErrors.New(dErrors.CodeInvalidInput, "activo debe ser true o false")
		}
		f.Activo = &activo
	}
	if v := q.Get("municipio"); v != "" {
		id, err := domain.ParseLugarID(v)
		if err != nil {
			return f, err
		}
		f.LugarID = id
	}
	if v := q.Get("tipoJunta"); v != "" {
		id, err := domain.ParseSerial(v)
		if err != nil {
			return f, err
		}
		f.TipoJuntaID = domain.TipoJuntaID(id)
	}
	return f, nil
}

// handleList accepts ?activo=, ?municipio=, ?tipoJunta= and ?q=.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f, err := parseFilter(r)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid juntas filter")
		return
	}
	out, err := h.svc.List(ctx, f)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to list juntas")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleVerificarPersoneria(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var excluir domain.JuntaID
	if v := r.URL.Query().Get("excluir"); v != "" {
		id, err := domain.ParseJuntaID(v)
		if err != nil {
			httputil.Fail(ctx, h.logger, w, err, "invalid excluir")
			return
		}
		excluir = id
	}
	ok, err := h.svc.PersoneriaDisponible(ctx, r.URL.Query().Get("numero"), excluir)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to check personeria")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.DisponibilidadResponse{Disponible: ok})
}

func (h *Handler) juntaID(w http.ResponseWriter, r *http.Request) (domain.JuntaID, bool) {
	id, err := domain.ParseJuntaID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Fail(r.Context(), h.logger, w, err, "invalid junta id")
		return 0, false
	}
	return id, true
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.juntaID(w, r)
	if !ok {
		return
	}
	d, err := h.svc.Detalle(r.Context(), id)
	if err != nil {
		httputil.Fail(r.Context(), h.logger, w, err, "failed to get junta")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) handleHistorial(w http.ResponseWriter, r *http.Request) {
	id, ok := h.juntaID(w, r)
	if !ok {
		return
	}
	out, err := h.svc.Historial(r.Context(), id)
	if err != nil {
		httputil.Fail(r.Context(), h.logger, w, err, "failed to load junta history")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.JuntaRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid junta request")
		return
	}
	j, err := h.svc.Create(ctx, req)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to create junta")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, j)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.juntaID(w, r)
	if !ok {
		return
	}
	var req models.JuntaRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid junta request")
		return
	}
	j, err := h.svc.Update(ctx, id, req)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to update junta")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, j)
}

func (h *Handler) handleCambiarPeriodo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.juntaID(w, r)
	if !ok {
		return
	}
	var req models.CambioPeriodoRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid period change request")
		return
	}
	j, err := h.svc.CambiarPeriodo(ctx, id, req)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to change junta period")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, j)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.juntaID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		httputil.Fail(r.Context(), h.logger, w, err, "failed to delete junta")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
