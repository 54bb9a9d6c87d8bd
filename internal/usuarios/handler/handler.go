package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"juntas/internal/usuarios/models"
	"juntas/pkg/domain"
	dErrors "juntas/pkg/domain-errors"
	"juntas/pkg/platform/httputil"
	authmw "juntas/pkg/platform/middleware/auth"
)

const maxMultipartMemory = 2 << 20

type Service interface {
	List(ctx context.Context, f models.Filter) ([]*models.Usuario, error)
	Get(ctx context.Context, id domain.UsuarioID) (*models.Usuario, error)
	Firma(ctx context.Context, id domain.UsuarioID) (*models.Firma, error)
	Create(ctx context.Context, req models.UsuarioRequest) (*models.Usuario, error)
	Update(ctx context.Context, id domain.UsuarioID, req models.UsuarioRequest) (*models.Usuario, error)
	SetActivo(ctx context.Context, id domain.UsuarioID, activo bool) (*models.Usuario, error)
	Delete(ctx context.Context, id domain.UsuarioID) error
	EmailDisponible(ctx context.Context, email string, excluir domain.UsuarioID) (bool, error)
	DocumentoDisponible(ctx context.Context, documento string, excluir domain.UsuarioID) (bool, error)
}

type Handler struct {
	svc    Service
	logger *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/roles", h.handleRoles)
	r.Route("/usuarios", func(r chi.Router) {
		r.Use(authmw.RequireRoles(h.logger, domain.RolAdministrador))
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/verificar-email", h.handleVerificarEmail)
		r.Get("/verificar-documento", h.handleVerificarDocumento)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Patch("/{id}/estado", h.handleEstado)
		r.Delete("/{id}", h.handleDelete)
		r.Get("/{id}/firma", h.handleFirma)
	})
}

type rolResponse struct {
	Nombre        domain.Rol `json:"nombre"`
	RequiereFirma bool       `json:"requiereFirma"`
}

func (h *Handler) handleRoles(w http.ResponseWriter, _ *http.Request) {
	out := make([]rolResponse, 0, len(domain.Roles()))
	for _, r := range domain.Roles() {
		out = append(out, rolResponse{Nombre: r, RequiereFirma: r.RequiresSignature()})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func views(us []*models.Usuario) []models.View {
	out := make([]models.View, 0, len(us))
	for _, u := range us {
		out = append(out, u.View())
	}
	return out
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var f models.Filter
	if v := r.URL.Query().Get("rol"); v != "" {
		rol, err := domain.ParseRol(v)
		if err != nil {
			httputil.Fail(ctx, h.logger, w, err, "invalid usuarios filter")
			return
		}
		f.Rol = rol
	}
	if v := r.URL.Query().Get("activo"); v != "" {
		activo, err := strconv.ParseBool(v)
		if err != nil {
			httputil.Fail(ctx, h.logger, w, dErrors.New(dErrors.CodeBadRequest, "activo debe ser true o false"), "invalid usuarios filter")
			return
		}
		f.Activo = &activo
	}
	us, err := h.svc.List(ctx, f)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to list usuarios")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, views(us))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseUsuarioID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid usuario id")
		return
	}
	u, err := h.svc.Get(ctx, id)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to get usuario")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u.View())
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := decodeUsuarioRequest(r)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid usuario request")
		return
	}
	u, err := h.svc.Create(ctx, req)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to create usuario")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, u.View())
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseUsuarioID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid usuario id")
		return
	}
	req, err := decodeUsuarioRequest(r)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid usuario request")
		return
	}
	u, err := h.svc.Update(ctx, id, req)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to update usuario")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u.View())
}

func (h *Handler) handleEstado(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseUsuarioID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid usuario id")
		return
	}
	var body struct {
		Activo *bool `json:"activo"`
	}
	if err := httputil.DecodeJSON(r, &body); err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid estado request")
		return
	}
	if body.Activo == nil {
		httputil.Fail(ctx, h.logger, w, dErrors.New(dErrors.CodeValidation, "activo es requerido"), "invalid estado request")
		return
	}
	u, err := h.svc.SetActivo(ctx, id, *body.Activo)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to change usuario estado")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u.View())
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseUsuarioID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid usuario id")
		return
	}
	if err := h.svc.Delete(ctx, id); err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to delete usuario")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleFirma(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseUsuarioID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid usuario id")
		return
	}
	f, err := h.svc.Firma(ctx, id)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to load firma")
		return
	}
	w.Header().Set("Content-Type", f.Mime)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(f.Data)
}

type disponibilidadResponse struct {
	Existe bool `json:"existe"`
}

func (h *Handler) handleVerificarEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email := r.URL.Query().Get("email")
	if err := models.ValidateEmail(email); err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid email check")
		return
	}
	ok, err := h.svc.EmailDisponible(ctx, email, excluir(r))
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to check email")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, disponibilidadResponse{Existe: !ok})
}

func (h *Handler) handleVerificarDocumento(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documento := r.URL.Query().Get("documento")
	if err := models.ValidateDocumento(documento); err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid documento check")
		return
	}
	ok, err := h.svc.DocumentoDisponible(ctx, documento, excluir(r))
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "failed to check documento")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, disponibilidadResponse{Existe: !ok})
}

// excluir reads the optional ?excluir= id of the user being edited.
func excluir(r *http.Request) domain.UsuarioID {
	id, err := domain.ParseUsuarioID(r.URL.Query().Get("excluir"))
	if err != nil {
		return 0
	}
	return id
}

// decodeUsuarioRequest accepts JSON or multipart/form-data. The signature
// can only arrive as the multipart file part "firma".
func decodeUsuarioRequest(r *http.Request) (models.UsuarioRequest, error) {
	var req models.UsuarioRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		err := httputil.DecodeJSON(r, &req)
		return req, err
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return req, dErrors.Wrap(err, dErrors.CodeBadRequest, "formulario inválido")
	}
	req.Nombre = r.FormValue("nombre")
	req.Email = r.FormValue("email")
	req.Documento = r.FormValue("documento")
	req.Password = r.FormValue("password")
	req.Rol = r.FormValue("rol")
	if v := r.FormValue("activo"); v != "" {
		activo, err := strconv.ParseBool(v)
		if err != nil {
			return req, dErrors.New(dErrors.CodeBadRequest, "activo debe ser true o false")
		}
		req.Activo = &activo
	}

	file, _, err := r.FormFile("firma")
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil
	}
	if err != nil {
		return req, dErrors.Wrap(err, dErrors.CodeBadRequest, "no se pudo leer la firma")
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, models.MaxFirmaBytes+1))
	if err != nil {
		return req, dErrors.Wrap(err, dErrors.CodeBadRequest, "no se pudo leer la firma")
	}
	firma, err := models.NewFirma(data)
	if err != nil {
		return req, err
	}
	req.Firma = firma
	return req, nil
}
