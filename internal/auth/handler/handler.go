package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"juntas/internal/auth/guard"
	"juntas/internal/auth/models"
	"juntas/pkg/domain"
	dErrors "juntas/pkg/domain-errors"
	"juntas/pkg/platform/httputil"
	authmw "juntas/pkg/platform/middleware/auth"
	"juntas/pkg/requestcontext"
)

type Service interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.Session, error)
	Logout(ctx context.Context, id domain.SessionID) error
	Verify(ctx context.Context, id domain.SessionID) (*models.Session, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error
	Access(ctx context.Context, ruta string) guard.Decision
}

// CookieConfig controls the session cookie attributes.
type CookieConfig struct {
	Name   string
	Secure bool
	Path   string
}

type Handler struct {
	svc    Service
	cookie CookieConfig
	logger *slog.Logger
}

func New(svc Service, cookie CookieConfig, logger *slog.Logger) *Handler {
	if cookie.Path == "" {
		cookie.Path = "/"
	}
	return &Handler{svc: svc, cookie: cookie, logger: logger}
}

// Register mounts the public /auth routes. They sit outside RequireSession.
func (h *Handler) Register(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.handleLogin)
		r.Post("/logout", h.handleLogout)
		r.Get("/verify", h.handleVerify)
		r.Post("/forgot-password", h.handleForgotPassword)
		r.Post("/reset-password", h.handleResetPassword)
		r.Get("/access", h.handleAccess)
	})
}

type mensajeResponse struct {
	Mensaje string `json:"mensaje"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid login request")
		return
	}
	sess, err := h.svc.Login(ctx, req)
	if err != nil {
		httputil.Fail(ctx, h.logger, w, err, "login failed")
		return
	}
	h.setCookie(w, sess.ID.String(), sess.ExpiresAt, int(sess.TTL(requestcontext.Now(ctx)).Seconds()))
	httputil.WriteJSON(w, http.StatusOK, sess.View())
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if id, ok := authmw.SessionIDFromRequest(r, h.cookie.Name); ok {
		if err := h.svc.Logout(ctx, id); err != nil {
			httputil.Fail(ctx, h.logger, w, err, "logout failed")
			return
		}
	}
	h.clearCookie(w)
	httputil.WriteJSON(w, http.StatusOK, mensajeResponse{Mensaje: "sesión cerrada"})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := authmw.SessionIDFromRequest(r, h.cookie.Name)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "sesión no válida o expirada"))
		return
	}
	sess, err := h.svc.Verify(ctx, id)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			h.clearCookie(w)
		}
		httputil.Fail(ctx, h.logger, w, err, "session verification failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sess.View())
}

func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.ForgotPasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid forgot-password request")
		return
	}
	if err := h.svc.ForgotPassword(ctx, req.Email); err != nil {
		httputil.Fail(ctx, h.logger, w, err, "forgot-password failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, mensajeResponse{
		Mensaje: "si el correo está registrado recibirá un enlace para restablecer la contraseña",
	})
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.ResetPasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Fail(ctx, h.logger, w, err, "invalid reset-password request")
		return
	}
	if err := h.svc.ResetPassword(ctx, req); err != nil {
		httputil.Fail(ctx, h.logger, w, err, "reset-password failed")
		return
	}
	h.clearCookie(w)
	httputil.WriteJSON(w, http.StatusOK, mensajeResponse{Mensaje: "contraseña actualizada"})
}

func (h *Handler) handleAccess(w http.ResponseWriter, r *http.Request) {
	ruta := r.URL.Query().Get("ruta")
	if ruta == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "ruta es requerida"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.svc.Access(r.Context(), ruta))
}

func (h *Handler) setCookie(w http.ResponseWriter, value string, expires time.Time, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     h.cookie.Path,
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     h.cookie.Path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
