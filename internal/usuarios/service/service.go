package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"juntas/internal/platform/database"
	"juntas/internal/usuarios/models"
	"juntas/internal/usuarios/store"
	"juntas/pkg/domain"
	dErrors "juntas/pkg/domain-errors"
	audit "juntas/pkg/platform/audit"
	"juntas/pkg/requestcontext"
)

type Store interface {
	List(ctx context.Context, f models.Filter) ([]*models.Usuario, error)
	FindByID(ctx context.Context, id domain.UsuarioID) (*models.Usuario, error)
	FindByEmail(ctx context.Context, email string) (*models.Usuario, error)
	FindByDocumento(ctx context.Context, documento string) (*models.Usuario, error)
	Create(ctx context.Context, u *models.Usuario) error
	Update(ctx context.Context, u *models.Usuario) error
	UpdatePassword(ctx context.Context, id domain.UsuarioID, hash string) error
	Delete(ctx context.Context, id domain.UsuarioID) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service manages login identities and their signatures.
type Service struct {
	store          Store
	tx             database.TxRunner
	bcryptCost     int
	logger         *slog.Logger
	auditPublisher AuditPublisher

	// compare is bcrypt.CompareHashAndPassword outside tests.
	compare   func(hash, password []byte) error
	dummyOnce sync.Once
	dummy     []byte
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithTx(tx database.TxRunner) Option {
	return func(s *Service) { s.tx = tx }
}

// WithBcryptCost lowers the hashing cost in tests.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

func New(st Store, opts ...Option) *Service {
	s := &Service{
		store:      st,
		bcryptCost: bcrypt.DefaultCost,
		logger:     slog.Default(),
		compare:    bcrypt.CompareHashAndPassword,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = database.NewMemoryTx()
	}
	return s
}

func (s *Service) List(ctx context.Context, f models.Filter) ([]*models.Usuario, error) {
	out, err := s.store.List(ctx, f)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo listar usuarios")
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id domain.UsuarioID) (*models.Usuario, error) {
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapErr(err)
	}
	return u, nil
}

// Firma returns the stored signature image for id.
func (s *Service) Firma(ctx context.Context, id domain.UsuarioID) (*models.Firma, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.TieneFirma() {
		return nil, dErrors.New(dErrors.CodeNotFound, "el usuario no tiene firma registrada")
	}
	return u.Firma, nil
}

func (s *Service) Create(ctx context.Context, req models.UsuarioRequest) (*models.Usuario, error) {
	req.Normalize()
	rol, err := req.Validate(true)
	if err != nil {
		return nil, err
	}
	if rol.RequiresSignature() && req.Firma == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "los usuarios con rol Mandatario requieren una firma")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo procesar la contraseña")
	}

	now := requestcontext.Now(ctx)
	u := &models.Usuario{
		Nombre:       req.Nombre,
		Email:        req.Email,
		Documento:    req.Documento,
		Rol:          rol,
		PasswordHash: string(hash),
		Firma:        req.Firma,
		Activo:       req.Activo == nil || *req.Activo,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.Create(txCtx, u); err != nil {
			return wrapErr(err)
		}
		return s.emit(txCtx, audit.EventUsuarioCreado, u)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Update(ctx context.Context, id domain.UsuarioID, req models.UsuarioRequest) (*models.Usuario, error) {
	req.Normalize()
	rol, err := req.Validate(false)
	if err != nil {
		return nil, err
	}

	var updated *models.Usuario
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		u, err := s.store.FindByID(txCtx, id)
		if err != nil {
			return wrapErr(err)
		}
		u.Nombre = req.Nombre
		u.Email = req.Email
		u.Documento = req.Documento
		u.Rol = rol
		if req.Activo != nil {
			u.Activo = *req.Activo
		}
		if req.Firma != nil {
			u.Firma = req.Firma
		}
		if rol.RequiresSignature() && !u.TieneFirma() {
			return dErrors.New(dErrors.CodeValidation, "los usuarios con rol Mandatario requieren una firma")
		}
		if req.Password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo procesar la contraseña")
			}
			u.PasswordHash = string(hash)
		}
		u.UpdatedAt = requestcontext.Now(txCtx)
		if err := s.store.Update(txCtx, u); err != nil {
			return wrapErr(err)
		}
		updated = u
		return s.emit(txCtx, audit.EventUsuarioActualizado, u)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetActivo enables or disables login for id. Users cannot disable themselves.
func (s *Service) SetActivo(ctx context.Context, id domain.UsuarioID, activo bool) (*models.Usuario, error) {
	if !activo && requestcontext.UsuarioID(ctx) == id {
		return nil, dErrors.New(dErrors.CodeConflict, "no puede desactivar su propia cuenta")
	}
	var updated *models.Usuario
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		u, err := s.store.FindByID(txCtx, id)
		if err != nil {
			return wrapErr(err)
		}
		u.Activo = activo
		u.UpdatedAt = requestcontext.Now(txCtx)
		if err := s.store.Update(txCtx, u); err != nil {
			return wrapErr(err)
		}
		updated = u
		return s.emit(txCtx, audit.EventUsuarioActualizado, u)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id domain.UsuarioID) error {
	if requestcontext.UsuarioID(ctx) == id {
		return dErrors.New(dErrors.CodeConflict, "no puede eliminar su propia cuenta")
	}
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		u, err := s.store.FindByID(txCtx, id)
		if err != nil {
			return wrapErr(err)
		}
		if err := s.store.Delete(txCtx, id); err != nil {
			return wrapErr(err)
		}
		return s.emit(txCtx, audit.EventUsuarioEliminado, u)
	})
}

// EmailDisponible reports whether email is free, ignoring the user excluir.
func (s *Service) EmailDisponible(ctx context.Context, email string, excluir domain.UsuarioID) (bool, error) {
	u, err := s.store.FindByEmail(ctx, email)
	return available(u, err, excluir)
}

func (s *Service) DocumentoDisponible(ctx context.Context, documento string, excluir domain.UsuarioID) (bool, error) {
	u, err := s.store.FindByDocumento(ctx, documento)
	return available(u, err, excluir)
}

func available(u *models.Usuario, err error, excluir domain.UsuarioID) (bool, error) {
	if errors.Is(err, store.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo verificar la disponibilidad")
	}
	return u.ID == excluir, nil
}

// Authenticate checks credentials. Unknown emails, inactive users and wrong
// passwords all produce the same unauthorized error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.Usuario, error) {
	invalid := dErrors.New(dErrors.CodeUnauthorized, "correo o contraseña incorrectos")
	u, err := s.store.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		// Same bcrypt work as a real account so timing does not reveal
		// which emails exist.
		_ = s.compare(s.dummyHash(), []byte(password))
		return nil, invalid
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo verificar las credenciales")
	}
	if s.compare([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, invalid
	}
	if !u.Activo {
		return nil, invalid
	}
	return u, nil
}

// dummyHash is hashed at the configured cost so the comparison costs the
// same as a stored one.
func (s *Service) dummyHash() []byte {
	s.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("juntas-sin-cuenta"), s.bcryptCost)
		if err != nil {
			s.logger.Error("failed to prepare dummy password hash", "error", err)
		}
		s.dummy = h
	})
	return s.dummy
}

func (s *Service) FindByEmail(ctx context.Context, email string) (*models.Usuario, error) {
	u, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, wrapErr(err)
	}
	return u, nil
}

// SetPassword replaces the password of id, used by the reset flow.
func (s *Service) SetPassword(ctx context.Context, id domain.UsuarioID, password string) error {
	if err := models.ValidatePassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo procesar la contraseña")
	}
	if err := s.store.UpdatePassword(ctx, id, string(hash)); err != nil {
		return wrapErr(err)
	}
	return nil
}

// EnsureAdmin creates the bootstrap Administrador unless a user with the
// same email already exists.
func (s *Service) EnsureAdmin(ctx context.Context, req models.UsuarioRequest) (*models.Usuario, bool, error) {
	req.Normalize()
	existing, err := s.store.FindByEmail(ctx, req.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, wrapErr(err)
	}
	req.Rol = string(domain.RolAdministrador)
	u, err := s.Create(ctx, req)
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, u *models.Usuario) error {
	if s.auditPublisher == nil {
		return nil
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:  string(action),
		Subject: "usuarios/" + u.ID.String(),
		Detail:  string(u.Rol) + " " + u.Email,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event", "action", action, "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo registrar la auditoría")
	}
	return nil
}

func wrapErr(err error) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "usuario no encontrado")
	case errors.Is(err, store.ErrEmailTaken):
		return dErrors.New(dErrors.CodeConflict, "el correo ya está registrado")
	case errors.Is(err, store.ErrDocumentoTaken):
		return dErrors.New(dErrors.CodeConflict, "el documento ya está registrado")
	case errors.Is(err, store.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "el usuario ya existe")
	case errors.Is(err, store.ErrInUse):
		return dErrors.New(dErrors.CodeConflict, "el usuario tiene certificados emitidos; desactívelo en lugar de eliminarlo")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "error de almacenamiento de usuarios")
}
