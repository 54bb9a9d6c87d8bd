package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"juntas/internal/catalogo/models"
	"juntas/internal/catalogo/store"
	dErrors "juntas/pkg/domain-errors"
	audit "juntas/pkg/platform/audit"
)

type Store interface {
	List(ctx context.Context, kind models.Kind) ([]*models.Item, error)
	FindByID(ctx context.Context, kind models.Kind, id int64) (*models.Item, error)
	FindByNombre(ctx context.Context, kind models.Kind, nombre string) (*models.Item, error)
	FindByCodigo(ctx context.Context, kind models.Kind, codigo string) (*models.Item, error)
	Create(ctx context.Context, kind models.Kind, item *models.Item) error
	Update(ctx context.Context, kind models.Kind, item *models.Item) error
	Delete(ctx context.Context, kind models.Kind, id int64) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service manages the lookup tables. Listings are cached in process and
// dropped on every write to the same kind.
type Service struct {
	store          Store
	cache          *gocache.Cache
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

// WithCacheTTL overrides the listing cache lifetime. Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl <= 0 {
			s.cache = nil
			return
		}
		s.cache = gocache.New(ttl, 2*ttl)
	}
}

func New(st Store, opts ...Option) *Service {
	s := &Service{
		store:  st,
		cache:  gocache.New(5*time.Minute, 10*time.Minute),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) List(ctx context.Context, kind models.Kind) ([]*models.Item, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(string(kind)); ok {
			return v.([]*models.Item), nil
		}
	}
	items, err := s.store.List(ctx, kind)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo listar "+string(kind))
	}
	if items == nil {
		items = []*models.Item{}
	}
	if s.cache != nil {
		s.cache.Set(string(kind), items, gocache.DefaultExpiration)
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, kind models.Kind, id int64) (*models.Item, error) {
	item, err := s.store.FindByID(ctx, kind, id)
	if err != nil {
		return nil, s.wrapErr(kind, err)
	}
	return item, nil
}

// FindByCodigo resolves rows such as tipos de junta by their stable code.
func (s *Service) FindByCodigo(ctx context.Context, kind models.Kind, codigo string) (*models.Item, error) {
	item, err := s.store.FindByCodigo(ctx, kind, codigo)
	if err != nil {
		return nil, s.wrapErr(kind, err)
	}
	return item, nil
}

func (s *Service) Create(ctx context.Context, kind models.Kind, req models.ItemRequest) (*models.Item, error) {
	req.Normalize()
	if err := req.Validate(kind); err != nil {
		return nil, err
	}
	item := &models.Item{Nombre: req.Nombre, Descripcion: req.Descripcion, Codigo: req.Codigo}
	if err := s.store.Create(ctx, kind, item); err != nil {
		return nil, s.wrapErr(kind, err)
	}
	s.invalidate(kind)
	s.emit(ctx, kind, "crear", item)
	return item, nil
}

func (s *Service) Update(ctx context.Context, kind models.Kind, id int64, req models.ItemRequest) (*models.Item, error) {
	req.Normalize()
	if err := req.Validate(kind); err != nil {
		return nil, err
	}
	item := &models.Item{ID: id, Nombre: req.Nombre, Descripcion: req.Descripcion, Codigo: req.Codigo}
	if err := s.store.Update(ctx, kind, item); err != nil {
		return nil, s.wrapErr(kind, err)
	}
	s.invalidate(kind)
	s.emit(ctx, kind, "actualizar", item)
	return item, nil
}

func (s *Service) Delete(ctx context.Context, kind models.Kind, id int64) error {
	if err := s.store.Delete(ctx, kind, id); err != nil {
		return s.wrapErr(kind, err)
	}
	s.invalidate(kind)
	s.emit(ctx, kind, "eliminar", &models.Item{ID: id})
	return nil
}

// Ensure returns the row named nombre, creating it when missing. Used by
// the seeder, so it emits no audit event.
func (s *Service) Ensure(ctx context.Context, kind models.Kind, req models.ItemRequest) (*models.Item, error) {
	req.Normalize()
	if err := req.Validate(kind); err != nil {
		return nil, err
	}
	existing, err := s.store.FindByNombre(ctx, kind, req.Nombre)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, s.wrapErr(kind, err)
	}
	item := &models.Item{Nombre: req.Nombre, Descripcion: req.Descripcion, Codigo: req.Codigo}
	if err := s.store.Create(ctx, kind, item); err != nil {
		return nil, s.wrapErr(kind, err)
	}
	s.invalidate(kind)
	return item, nil
}

func (s *Service) invalidate(kind models.Kind) {
	if s.cache != nil {
		s.cache.Delete(string(kind))
	}
}

func (s *Service) emit(ctx context.Context, kind models.Kind, op string, item *models.Item) {
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:  string(audit.EventCatalogoModificado),
		Subject: fmt.Sprintf("%s/%d", kind, item.ID),
		Detail:  op + " " + item.Nombre,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", audit.EventCatalogoModificado,
			"error", err,
		)
	}
}

func (s *Service) wrapErr(kind models.Kind, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, kind.Label()+" no encontrado")
	case errors.Is(err, store.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "ya existe un registro de "+kind.Label()+" con ese nombre o código")
	case errors.Is(err, store.ErrInUse):
		return dErrors.New(dErrors.CodeConflict, "el registro de "+kind.Label()+" está en uso y no puede eliminarse")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "error de almacenamiento en "+string(kind))
}
