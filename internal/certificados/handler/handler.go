package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"juntas/internal/certificados/models"
	"juntas/pkg/domain"
	"juntas/pkg/platform/httputil"
	authmw "juntas/pkg/platform/middleware/auth"
)

// HeaderCertificadoID carries the issued certificate's id next to the PDF.
const HeaderCertificadoID = "X-Certificado-ID"

type Service interface {
	Emitir(ctx context.Context, req models.EmitirRequest) (*models.Emision, error)
	Validar(ctx context.Context, raw string) (*models.Validacion, error)
	List(ctx context.Context, junta domain.JuntaID) ([]*models.Certificado, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterPublic mounts the QR validation route, which needs no session.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/certificados/validar/{id}", h.handleValidar)
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/certificados", h.handleList)
	r.With(authmw.RequireRoles(h.logger, domain.RolAdministrador, domain.RolAuxiliar, domain.RolMandatario)).
		Post("/certificados", h.handleEmitir)
}

func (h *Handler) handleEmitir(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.EmitirRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid certificado request")
		return
	}
	out, err := h.svc.Emitir(ctx, req)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to issue certificado")
		return
	}
	w.Header().Set(HeaderCertificadoID, out.Certificado.ID.String())
	w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, "+HeaderCertificadoID)
	httputil.WriteAttachment(w, "application/pdf", out.Certificado.Filename(), out.PDF)
}

func (h *Handler) handleValidar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out, err := h.svc.Validar(ctx, chi.URLParam(r, "id"))
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to validate certificado")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// handleList accepts ?junta=; without it every certificate is listed.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
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
	out, err := h.svc.List(ctx, junta)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to list certificados")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
