// Package service implements cookie sessions, login and the password reset
// flow.
package service

//go:generate mockgen -destination=mocks/mocks.go -package=mocks juntas/internal/auth/service Usuarios,Mailer,CaptchaVerifier

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"juntas/internal/auth/device"
	"juntas/internal/auth/lockout"
	"juntas/internal/auth/guard"
	"juntas/internal/auth/metrics"
	"juntas/internal/auth/models"
	"juntas/internal/auth/resettoken"
	"juntas/internal/auth/store/reset"
	"juntas/internal/auth/store/session"
	"juntas/internal/platform/database"
	umodels "juntas/internal/usuarios/models"
	"juntas/pkg/domain"
	dErrors "juntas/pkg/domain-errors"
	audit "juntas/pkg/platform/audit"
	authmw "juntas/pkg/platform/middleware/auth"
	"juntas/pkg/requestcontext"
)

const (
	defaultSessionTTL = 8 * time.Hour
	resetPath         = "/restablecer"
)

// Usuarios is the slice of the usuarios service that authentication needs.
type Usuarios interface {
	Authenticate(ctx context.Context, email, password string) (*umodels.Usuario, error)
	Get(ctx context.Context, id domain.UsuarioID) (*umodels.Usuario, error)
	FindByEmail(ctx context.Context, email string) (*umodels.Usuario, error)
	SetPassword(ctx context.Context, id domain.UsuarioID, password string) error
}

type SessionStore interface {
	Create(ctx context.Context, s *models.Session, ttl time.Duration) error
	Find(ctx context.Context, id domain.SessionID) (*models.Session, error)
	Delete(ctx context.Context, id domain.SessionID) error
	DeleteByUsuario(ctx context.Context, usuarioID domain.UsuarioID) (int, error)
}

type ResetStore interface {
	Create(ctx context.Context, r *models.PasswordReset) error
	Consume(ctx context.Context, jti string, now time.Time) (*models.PasswordReset, error)
}

type Mailer interface {
	SendPasswordReset(ctx context.Context, to, nombre, link string) error
}

type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// Lockout throttles repeated failures for an email and client IP.
type Lockout interface {
	Check(ctx context.Context, email, ip string) error
	RecordFailure(ctx context.Context, email, ip string) (*lockout.Record, error)
	Clear(ctx context.Context, email, ip string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	usuarios       Usuarios
	sessions       SessionStore
	resets         ResetStore
	tokens         *resettoken.Service
	captcha        CaptchaVerifier
	mailer         Mailer
	device         *device.Service
	lockout        Lockout
	tx             database.TxRunner
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	logger         *slog.Logger
	sessionTTL     time.Duration
	publicURL      string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithCaptcha(v CaptchaVerifier) Option {
	return func(s *Service) { s.captcha = v }
}

func WithMailer(m Mailer) Option {
	return func(s *Service) { s.mailer = m }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTx(tx database.TxRunner) Option {
	return func(s *Service) { s.tx = tx }
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithPublicURL sets the SPA origin used to build reset links.
func WithPublicURL(u string) Option {
	return func(s *Service) { s.publicURL = strings.TrimRight(u, "/") }
}

func WithLockout(l Lockout) Option {
	return func(s *Service) { s.lockout = l }
}

func WithDeviceFingerprinting(enabled bool) Option {
	return func(s *Service) { s.device = device.NewService(enabled) }
}

func New(usuarios Usuarios, sessions SessionStore, resets ResetStore, tokens *resettoken.Service, opts ...Option) *Service {
	s := &Service{
		usuarios:   usuarios,
		sessions:   sessions,
		resets:     resets,
		tokens:     tokens,
		device:     device.NewService(true),
		tx:         database.NewMemoryTx(),
		logger:     slog.Default(),
		sessionTTL: defaultSessionTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login verifies reCAPTCHA, then the credentials, and opens a session.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.Session, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "correo y contraseña son requeridos")
	}
	ip := requestcontext.ClientIP(ctx)
	ua := requestcontext.UserAgent(ctx)

	if s.lockout != nil {
		if err := s.lockout.Check(ctx, email, ip); err != nil {
			s.loginFailed(ctx, email, "bloqueado")
			return nil, err
		}
	}

	if s.captcha != nil {
		if err := s.captcha.Verify(ctx, req.RecaptchaToken, ip); err != nil {
			s.loginFailed(ctx, email, "recaptcha")
			return nil, err
		}
	}

	u, err := s.usuarios.Authenticate(ctx, email, req.Password)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			s.loginFailed(ctx, email, "credenciales")
			s.recordFailure(ctx, email, ip)
		}
		return nil, err
	}
	if s.lockout != nil {
		if err := s.lockout.Clear(ctx, email, ip); err != nil {
			s.logger.WarnContext(ctx, "failed to clear login lockout", "error", err)
		}
	}

	now := requestcontext.Now(ctx)
	sess := &models.Session{
		ID:          domain.NewSessionID(),
		UsuarioID:   u.ID,
		Rol:         u.Rol,
		Nombre:      u.Nombre,
		Email:       u.Email,
		Dispositivo: device.ParseUserAgent(ua),
		Fingerprint: s.device.ComputeFingerprint(ua),
		IP:          ip,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, sess, s.sessionTTL); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo iniciar la sesión")
	}

	if s.metrics != nil {
		s.metrics.IncrementLogin("exitoso")
	}
	s.logAudit(ctx, audit.Event{
		UsuarioID: u.ID,
		Action:    string(audit.EventLoginSucceeded),
		Subject:   "usuarios/" + u.ID.String(),
		Decision:  "granted",
		Detail:    u.Email + " desde " + sess.Dispositivo,
	})
	return sess, nil
}

func (s *Service) loginFailed(ctx context.Context, email, reason string) {
	if s.metrics != nil {
		s.metrics.IncrementLogin(reason)
	}
	s.logger.WarnContext(ctx, "login failed",
		"reason", reason,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.logAudit(ctx, audit.Event{
		Action:   string(audit.EventLoginFailed),
		Decision: "denied",
		Reason:   reason,
		Detail:   email,
	})
}

// recordFailure counts a bad password. A store failure must not mask the
// credential error.
func (s *Service) recordFailure(ctx context.Context, email, ip string) {
	if s.lockout == nil {
		return
	}
	if _, err := s.lockout.RecordFailure(ctx, email, ip); err != nil {
		s.logger.WarnContext(ctx, "failed to record login failure", "error", err)
	}
}

// Logout deletes the session. Unknown sessions are ignored.
func (s *Service) Logout(ctx context.Context, id domain.SessionID) error {
	sess, err := s.sessions.Find(ctx, id)
	if errors.Is(err, session.ErrNotFound) {
		return nil
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo cerrar la sesión")
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo cerrar la sesión")
	}
	s.logAudit(ctx, audit.Event{
		UsuarioID: sess.UsuarioID,
		Action:    string(audit.EventLogout),
		Subject:   "usuarios/" + sess.UsuarioID.String(),
		Detail:    sess.Email,
	})
	return nil
}

// Verify returns the live session for id. Role and name are refreshed from
// the usuario so changes apply without a new login; inactive or deleted
// users lose their session.
func (s *Service) Verify(ctx context.Context, id domain.SessionID) (*models.Session, error) {
	invalid := dErrors.New(dErrors.CodeUnauthorized, "sesión no válida o expirada")

	sess, err := s.sessions.Find(ctx, id)
	if errors.Is(err, session.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo verificar la sesión")
	}
	if sess.IsExpired(requestcontext.Now(ctx)) {
		_ = s.sessions.Delete(ctx, id)
		return nil, invalid
	}

	u, err := s.usuarios.Get(ctx, sess.UsuarioID)
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		_ = s.sessions.Delete(ctx, id)
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}
	if !u.Activo {
		_ = s.sessions.Delete(ctx, id)
		return nil, invalid
	}
	sess.Rol = u.Rol
	sess.Nombre = u.Nombre
	sess.Email = u.Email
	return sess, nil
}

// ResolveSession adapts Verify to the session middleware.
func (s *Service) ResolveSession(ctx context.Context, id domain.SessionID) (*authmw.Principal, error) {
	if s.metrics != nil {
		defer s.metrics.ObserveResolveSession(time.Now())
	}
	sess, err := s.Verify(ctx, id)
	if err != nil {
		return nil, err
	}
	return &authmw.Principal{
		SessionID: sess.ID,
		UsuarioID: sess.UsuarioID,
		Rol:       sess.Rol,
		Nombre:    sess.Nombre,
		Email:     sess.Email,
	}, nil
}

// Access evaluates a client route for the principal in ctx.
func (s *Service) Access(ctx context.Context, ruta string) guard.Decision {
	var rol *domain.Rol
	if p, ok := authmw.GetPrincipal(ctx); ok {
		r := p.Rol
		rol = &r
	}
	d := guard.Access(rol, ruta)
	if d.Estado == guard.Unauthorized {
		s.logAudit(ctx, audit.Event{
			UsuarioID: requestcontext.UsuarioID(ctx),
			Action:    string(audit.EventAccessDenied),
			Subject:   ruta,
			Decision:  "denied",
			Reason:    "rol",
		})
	}
	return d
}

// ForgotPassword mails a reset link when email belongs to an active user.
// The outcome is never reported to the caller.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := umodels.ValidateEmail(email); err != nil {
		return err
	}

	u, err := s.usuarios.FindByEmail(ctx, email)
	if err != nil || !u.Activo {
		if err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound) {
			s.logger.ErrorContext(ctx, "password reset lookup failed", "error", err)
		}
		s.logAudit(ctx, audit.Event{
			Action: string(audit.EventPasswordResetRequested),
			Reason: "usuario_desconocido",
			Detail: email,
		})
		return nil
	}

	now := requestcontext.Now(ctx)
	token, claims, err := s.tokens.Issue(u.ID, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to sign reset token", "error", err)
		return nil
	}
	if err := s.resets.Create(ctx, &models.PasswordReset{
		JTI:       claims.ID,
		UsuarioID: u.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to record reset token", "error", err)
		return nil
	}

	link := s.publicURL + resetPath + "?token=" + url.QueryEscape(token)
	if s.mailer != nil {
		if err := s.mailer.SendPasswordReset(ctx, u.Email, u.Nombre, link); err != nil {
			s.logger.ErrorContext(ctx, "failed to send reset mail", "error", err, "usuario_id", u.ID)
		}
	}
	if s.metrics != nil {
		s.metrics.IncrementPasswordReset("solicitado")
	}
	s.logAudit(ctx, audit.Event{
		UsuarioID: u.ID,
		Action:    string(audit.EventPasswordResetRequested),
		Subject:   "usuarios/" + u.ID.String(),
		Detail:    u.Email,
	})
	return nil
}

// ResetPassword consumes a reset token, stores the new password and closes
// every open session of the user.
func (s *Service) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	now := requestcontext.Now(ctx)
	claims, err := s.tokens.Verify(req.Token, now)
	if err != nil {
		return err
	}
	usuarioID, err := claims.UsuarioID()
	if err != nil {
		return err
	}
	if err := umodels.ValidatePassword(req.Password); err != nil {
		return err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		r, err := s.resets.Consume(ctx, claims.ID, now)
		if err != nil {
			return wrapResetErr(err)
		}
		if r.UsuarioID != usuarioID {
			return dErrors.New(dErrors.CodeUnauthorized, "enlace de restablecimiento inválido")
		}
		return s.usuarios.SetPassword(ctx, usuarioID, req.Password)
	})
	if err != nil {
		return err
	}

	if n, err := s.sessions.DeleteByUsuario(ctx, usuarioID); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke sessions after reset", "error", err, "usuario_id", usuarioID)
	} else if n > 0 {
		s.logger.InfoContext(ctx, "sessions revoked after password reset", "count", n, "usuario_id", usuarioID)
	}
	if s.metrics != nil {
		s.metrics.IncrementPasswordReset("completado")
	}
	s.logAudit(ctx, audit.Event{
		UsuarioID: usuarioID,
		Action:    string(audit.EventPasswordResetCompleted),
		Subject:   "usuarios/" + usuarioID.String(),
	})
	return nil
}

func wrapResetErr(err error) error {
	switch {
	case errors.Is(err, reset.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeUnauthorized, "el enlace de restablecimiento ya fue utilizado")
	case errors.Is(err, reset.ErrExpired):
		return dErrors.New(dErrors.CodeUnauthorized, "el enlace de restablecimiento expiró")
	case errors.Is(err, reset.ErrNotFound):
		return dErrors.New(dErrors.CodeUnauthorized, "enlace de restablecimiento inválido")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo restablecer la contraseña")
	}
}

// logAudit never fails the caller; security events are best effort.
func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"error", err,
		)
	}
}
