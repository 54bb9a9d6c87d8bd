// Package lockout blocks logins for an email and client IP pair after too
// many failed attempts inside a sliding window.
package lockout

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	dErrors "juntas/pkg/domain-errors"
	audit "juntas/pkg/platform/audit"
	"juntas/pkg/requestcontext"
)

// Record is the failure state of one identifier.
type Record struct {
	Identifier    string
	FailureCount  int
	LastFailureAt time.Time
	LockedUntil   *time.Time
}

func (r *Record) IsLockedAt(now time.Time) bool {
	return r != nil && r.LockedUntil != nil && now.Before(*r.LockedUntil)
}

type Config struct {
	// Attempts is the number of failures that triggers a lock.
	Attempts     int
	Window       time.Duration
	LockDuration time.Duration
}

func DefaultConfig() Config {
	return Config{Attempts: 5, Window: 15 * time.Minute, LockDuration: 15 * time.Minute}
}

// Key builds the identifier for an email and client IP.
func Key(email, ip string) string {
	return strings.ToLower(strings.TrimSpace(email)) + "|" + ip
}

// Store persists lockout records. RecordFailure must increment atomically
// and restart the count when the previous failure is older than window.
type Store interface {
	Get(ctx context.Context, identifier string) (*Record, error)
	RecordFailure(ctx context.Context, identifier string, now time.Time, window time.Duration) (*Record, error)
	Lock(ctx context.Context, identifier string, until time.Time, window time.Duration) error
	Clear(ctx context.Context, identifier string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          Store
	cfg            Config
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithConfig(cfg Config) Option {
	return func(s *Service) { s.cfg = cfg }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, cfg: DefaultConfig(), logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check fails with too_many_requests while the pair is locked.
func (s *Service) Check(ctx context.Context, email, ip string) error {
	rec, err := s.store.Get(ctx, Key(email, ip))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo verificar el bloqueo de acceso")
	}
	now := requestcontext.Now(ctx)
	if !rec.IsLockedAt(now) {
		return nil
	}
	minutes := int(math.Ceil(rec.LockedUntil.Sub(now).Minutes()))
	return dErrors.New(dErrors.CodeTooManyRequests,
		fmt.Sprintf("demasiados intentos fallidos; intente de nuevo en %d minutos", minutes))
}

// RecordFailure counts a failed login and locks the pair once the count
// reaches the configured attempts.
func (s *Service) RecordFailure(ctx context.Context, email, ip string) (*Record, error) {
	key := Key(email, ip)
	now := requestcontext.Now(ctx)
	rec, err := s.store.RecordFailure(ctx, key, now, s.cfg.Window)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo registrar el intento fallido")
	}
	if rec.FailureCount < s.cfg.Attempts || rec.IsLockedAt(now) {
		return rec, nil
	}

	until := now.Add(s.cfg.LockDuration)
	if err := s.store.Lock(ctx, key, until, s.cfg.Window); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo bloquear el acceso")
	}
	rec.LockedUntil = &until

	s.logger.WarnContext(ctx, "login locked",
		"failures", rec.FailureCount,
		"locked_until", until,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.auditPublisher != nil {
		if err := s.auditPublisher.Emit(ctx, audit.Event{
			Action:   string(audit.EventLoginBloqueado),
			Decision: "denied",
			Reason:   "intentos_fallidos",
			Detail:   fmt.Sprintf("%s bloqueado hasta %s", strings.ToLower(strings.TrimSpace(email)), until.Format(time.RFC3339)),
		}); err != nil {
			s.logger.ErrorContext(ctx, "failed to emit audit event", "action", audit.EventLoginBloqueado, "error", err)
		}
	}
	return rec, nil
}

// Clear forgets the failures of the pair after a successful login.
func (s *Service) Clear(ctx context.Context, email, ip string) error {
	if err := s.store.Clear(ctx, Key(email, ip)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo limpiar el bloqueo de acceso")
	}
	return nil
}
