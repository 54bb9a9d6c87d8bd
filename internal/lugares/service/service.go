package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"juntas/internal/lugares/models"
	"juntas/internal/lugares/store"
	"juntas/pkg/domain"
	dErrors "juntas/pkg/domain-errors"
	audit "juntas/pkg/platform/audit"
)

type Store interface {
	List(ctx context.Context, f models.Filter) ([]*models.Lugar, error)
	FindByID(ctx context.Context, id domain.LugarID) (*models.Lugar, error)
	FindByNombre(ctx context.Context, tipo models.Tipo, padreID *domain.LugarID, nombre string) (*models.Lugar, error)
	CountChildren(ctx context.Context, id domain.LugarID) (int, error)
	Create(ctx context.Context, l *models.Lugar) error
	Update(ctx context.Context, l *models.Lugar) error
	Delete(ctx context.Context, id domain.LugarID) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

const treeKey = "arbol"

// Service enforces the Departamento → Provincia → Municipio hierarchy and
// keeps the full tree cached between writes.
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

func New(st Store, opts ...Option) *Service {
	s := &Service{
		store:  st,
		cache:  gocache.New(10*time.Minute, 20*time.Minute),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) List(ctx context.Context, f models.Filter) ([]*models.Lugar, error) {
	out, err := s.store.List(ctx, f)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo listar lugares")
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id domain.LugarID) (*models.Lugar, error) {
	l, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapErr(err)
	}
	return l, nil
}

// Hijos lists the direct children of id.
func (s *Service) Hijos(ctx context.Context, id domain.LugarID) ([]*models.Lugar, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.List(ctx, models.Filter{PadreID: &id})
}

// Ruta returns the chain from the departamento down to id.
func (s *Service) Ruta(ctx context.Context, id domain.LugarID) ([]*models.Lugar, error) {
	var chain []*models.Lugar
	next := &id
	for depth := 0; next != nil; depth++ {
		if depth > 3 {
			return nil, dErrors.New(dErrors.CodeInternal, "jerarquía de lugares inconsistente")
		}
		l, err := s.Get(ctx, *next)
		if err != nil {
			return nil, err
		}
		chain = append([]*models.Lugar{l}, chain...)
		next = l.PadreID
	}
	return chain, nil
}

// Arbol returns every departamento with its provincias and municipios.
func (s *Service) Arbol(ctx context.Context) ([]*models.Nodo, error) {
	if v, ok := s.cache.Get(treeKey); ok {
		return v.([]*models.Nodo), nil
	}
	all, err := s.List(ctx, models.Filter{})
	if err != nil {
		return nil, err
	}

	nodes := make(map[domain.LugarID]*models.Nodo, len(all))
	for _, l := range all {
		nodes[l.ID] = &models.Nodo{Lugar: l}
	}
	roots := make([]*models.Nodo, 0)
	for _, l := range all {
		n := nodes[l.ID]
		if l.PadreID == nil {
			roots = append(roots, n)
			continue
		}
		if parent, ok := nodes[*l.PadreID]; ok {
			parent.Hijos = append(parent.Hijos, n)
		}
	}
	s.cache.Set(treeKey, roots, gocache.DefaultExpiration)
	return roots, nil
}

func (s *Service) Create(ctx context.Context, req models.LugarRequest) (*models.Lugar, error) {
	l, err := s.build(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, l); err != nil {
		return nil, wrapErr(err)
	}
	s.changed(ctx, l, "crear")
	return l, nil
}

func (s *Service) Update(ctx context.Context, id domain.LugarID, req models.LugarRequest) (*models.Lugar, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	l, err := s.build(ctx, req)
	if err != nil {
		return nil, err
	}
	l.ID = id
	if l.PadreID != nil && *l.PadreID == id {
		return nil, dErrors.New(dErrors.CodeValidation, "un lugar no puede ser su propio padre")
	}
	if l.Tipo != current.Tipo {
		n, err := s.store.CountChildren(ctx, id)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo verificar la jerarquía")
		}
		if n > 0 {
			return nil, dErrors.New(dErrors.CodeConflict, "no se puede cambiar el tipo de un lugar con lugares dependientes")
		}
	}
	if err := s.store.Update(ctx, l); err != nil {
		return nil, wrapErr(err)
	}
	s.changed(ctx, l, "actualizar")
	return l, nil
}

func (s *Service) Delete(ctx context.Context, id domain.LugarID) error {
	l, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return wrapErr(err)
	}
	s.changed(ctx, l, "eliminar")
	return nil
}

// Ensure finds a place by tipo, parent and name or creates it. Used by the
// seeder; emits no audit event.
func (s *Service) Ensure(ctx context.Context, req models.LugarRequest) (*models.Lugar, error) {
	l, err := s.build(ctx, req)
	if err != nil {
		return nil, err
	}
	existing, err := s.store.FindByNombre(ctx, l.Tipo, l.PadreID, l.Nombre)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, wrapErr(err)
	}
	if err := s.store.Create(ctx, l); err != nil {
		return nil, wrapErr(err)
	}
	s.cache.Delete(treeKey)
	return l, nil
}

func (s *Service) build(ctx context.Context, req models.LugarRequest) (*models.Lugar, error) {
	req.Normalize()
	tipo, err := req.Validate()
	if err != nil {
		return nil, err
	}
	l := &models.Lugar{
		Nombre:     req.Nombre,
		Tipo:       tipo,
		PadreID:    req.Padre(),
		CodigoDane: req.CodigoDane,
	}
	if want, ok := tipo.ParentTipo(); ok {
		parent, err := s.store.FindByID(ctx, *l.PadreID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeValidation, "el lugar padre no existe")
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo cargar el lugar padre")
		}
		if parent.Tipo != want {
			return nil, dErrors.New(dErrors.CodeValidation,
				"el padre de un lugar de tipo "+string(tipo)+" debe ser de tipo "+string(want))
		}
	}
	return l, nil
}

func (s *Service) changed(ctx context.Context, l *models.Lugar, op string) {
	s.cache.Delete(treeKey)
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:  string(audit.EventLugarModificado),
		Subject: "lugares/" + l.ID.String(),
		Detail:  op + " " + string(l.Tipo) + " " + l.Nombre,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", audit.EventLugarModificado,
			"error", err,
		)
	}
}

func wrapErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "lugar no encontrado")
	case errors.Is(err, store.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "ya existe un lugar con ese código DANE")
	case errors.Is(err, store.ErrInUse):
		return dErrors.New(dErrors.CodeConflict, "el lugar tiene registros dependientes y no puede eliminarse")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "error de almacenamiento de lugares")
}
