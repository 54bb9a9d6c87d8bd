package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"juntas/internal/reportes/models"
	"juntas/pkg/domain"
	dErrors "juntas/pkg/domain-errors"
	"juntas/pkg/platform/httputil"
	authmw "juntas/pkg/platform/middleware/auth"
)

type Service interface {
	Resumen(ctx context.Context, f models.Filter) (*models.Resumen, error)
	Export(ctx context.Context, tipo models.Tipo, formato models.Formato, f models.Filter) (*models.Archivo, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts /reportes for Administrador, Auxiliar and Consulta. The
// exports carry personal data, so Mandatario sessions are refused.
func (h *Handler) Register(r chi.Router) {
	r.Route("/reportes", func(r chi.Router) {
		r.Use(authmw.RequireRoles(h.logger, domain.RolAdministrador, domain.RolAuxiliar, domain.RolConsulta))
		r.Get("/resumen", h.handleResumen)
		r.Get("/{tipo}/export", h.handleExport)
	})
}

// parseFilter reads ?provincia=, ?municipio=, ?tipoJunta= and ?activo=.
func parseFilter(r *http.Request) (models.Filter, error) {
	q := r.URL.Query()
	var f models.Filter
	if v := q.Get("provincia"); v != "" {
		id, err := domain.ParseLugarID(v)
		if err != nil {
			return f, err
		}
		f.ProvinciaID = id
	}
	if v := q.Get("municipio"); v != "" {
		id, err := domain.ParseLugarID(v)
		if err != nil {
			return f, err
		}
		f.MunicipioID = id
	}
	if v := q.Get("tipoJunta"); v != "" {
		id, err := domain.ParseSerial(v)
		if err != nil {
			return f, err
		}
		f.TipoJuntaID = domain.TipoJuntaID(id)
	}
	if v := q.Get("activo"); v != "" {
		activo, err := strconv.ParseBool(v)
		if err != nil {
			return f, dErrors.New(dErrors.CodeInvalidInput, "activo debe ser true o false")
		}
		f.Activo = &activo
	}
	return f, nil
}

func (h *Handler) handleResumen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f, err := parseFilter(r)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid report filter")
		return
	}
	out, err := h.svc.Resumen(ctx, f)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to build report summary")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tipo, err := models.ParseTipo(chi.URLParam(r, "tipo"))
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "unknown report")
		return
	}
	formato, err := models.ParseFormato(r.URL.Query().Get("formato"))
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid export format")
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid report filter")
		return
	}
	a, err := h.svc.Export(ctx, tipo, formato, f)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to export report")
		return
	}
	httputil.WriteAttachment(w, a.ContentType, a.Nombre, a.Body)
}
