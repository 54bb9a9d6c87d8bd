package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	authhandler "juntas/internal/auth/handler"
	"juntas/internal/auth/lockout"
	"juntas/internal/auth/mailer"
	authmetrics "juntas/internal/auth/metrics"
	"juntas/internal/auth/recaptcha"
	"juntas/internal/auth/resettoken"
	authsvc "juntas/internal/auth/service"
	"juntas/internal/auth/store/reset"
	"juntas/internal/auth/store/session"
	chandler "juntas/internal/catalogo/handler"
	csvc "juntas/internal/catalogo/service"
	cstore "juntas/internal/catalogo/store"
	certhandler "juntas/internal/certificados/handler"
	certmetrics "juntas/internal/certificados/metrics"
	certsvc "juntas/internal/certificados/service"
	certstore "juntas/internal/certificados/store"
	httpapi "juntas/internal/http"
	jhandler "juntas/internal/juntas/handler"
	jmetrics "juntas/internal/juntas/metrics"
	jsvc "juntas/internal/juntas/service"
	jstore "juntas/internal/juntas/store"
	logshandler "juntas/internal/logs/handler"
	lhandler "juntas/internal/lugares/handler"
	lsvc "juntas/internal/lugares/service"
	lstore "juntas/internal/lugares/store"
	mhandler "juntas/internal/mandatarios/handler"
	msvc "juntas/internal/mandatarios/service"
	mstore "juntas/internal/mandatarios/store"
	"juntas/internal/platform/config"
	"juntas/internal/platform/database"
	"juntas/internal/platform/database/seed"
	"juntas/internal/platform/metrics"
	"juntas/internal/platform/redis"
	rhandler "juntas/internal/reportes/handler"
	rsvc "juntas/internal/reportes/service"
	uhandler "juntas/internal/usuarios/handler"
	usvc "juntas/internal/usuarios/service"
	ustore "juntas/internal/usuarios/store"
	audit "juntas/pkg/platform/audit"
	"juntas/pkg/platform/audit/hub"
	"juntas/pkg/platform/audit/publisher"
	"juntas/pkg/platform/audit/publishers/kafka"
	auditmemory "juntas/pkg/platform/audit/store/memory"
	auditpg "juntas/pkg/platform/audit/store/postgres"
)

const catalogoCacheTTL = 5 * time.Minute

// storage holds one implementation per store, all backed by either
// PostgreSQL or process memory.
type storage struct {
	db *sql.DB
	tx database.TxRunner

	catalogo     csvc.Store
	lugares      lsvc.Store
	juntas       jsvc.Store
	mandatarios  msvc.Store
	certificados certsvc.Store
	usuarios     usvc.Store
	resets       authsvc.ResetStore
	lockouts     lockout.Store
	audit        audit.Store
}

func openStorage(ctx context.Context, cfg config.Server, log *slog.Logger) (*storage, error) {
	if cfg.Storage == "memory" {
		log.Warn("using in-memory storage; data is lost on restart")
		mandatarios, certificados := mstore.NewInMemory(), certstore.NewInMemory()
		return &storage{
			tx:           database.NewMemoryTx(),
			catalogo:     cstore.NewInMemory(),
			lugares:      lstore.NewInMemory(),
			juntas:       jstore.NewInMemory(jstore.WithReferrers(certificados), jstore.WithCascade(mandatarios)),
			mandatarios:  mandatarios,
			certificados: certificados,
			usuarios:     ustore.NewInMemory(),
			resets:       reset.NewInMemory(),
			lockouts:     lockout.NewInMemory(),
			audit:        auditmemory.NewInMemoryStore(),
		}, nil
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db, log); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &storage{
		db:           db,
		tx:           database.NewPostgresTx(db),
		catalogo:     cstore.NewPostgres(db),
		lugares:      lstore.NewPostgres(db),
		juntas:       jstore.NewPostgres(db),
		mandatarios:  mstore.NewPostgres(db),
		certificados: certstore.NewPostgres(db),
		usuarios:     ustore.NewPostgres(db),
		resets:       reset.NewPostgres(db),
		lockouts:     lockout.NewPostgres(db),
		audit:        auditpg.New(db),
	}, nil
}

// app is the fully wired process: storage, audit pipeline and services.
type app struct {
	cfg config.Server
	log *slog.Logger

	storage   *storage
	redis     *redis.Client
	hub       *hub.Hub
	kafka     *kafka.Sink
	publisher *publisher.Publisher

	catalogo     *csvc.Service
	lugares      *lsvc.Service
	juntas       *jsvc.Service
	mandatarios  *msvc.Service
	certificados *certsvc.Service
	usuarios     *usvc.Service
	auth         *authsvc.Service
	reportes     *rsvc.Service
}

func newApp(ctx context.Context, cfg config.Server, log *slog.Logger) (a *app, err error) {
	a = &app{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			a.close()
			a = nil
		}
	}()

	if a.storage, err = openStorage(ctx, cfg, log); err != nil {
		return a, err
	}
	if a.redis, err = redis.New(ctx, cfg.Redis); err != nil {
		return a, err
	}
	if err = a.buildAudit(ctx); err != nil {
		return a, err
	}
	a.buildServices()
	return a, nil
}

// buildAudit chains the store, the live hub behind /logs/stream and the
// optional Kafka topic.
func (a *app) buildAudit(ctx context.Context) error {
	a.hub = hub.New(a.cfg.Audit.RecentCapacity, hub.WithMetrics(hub.NewMetrics()))
	opts := []publisher.Option{
		publisher.WithLogger(a.log),
		publisher.WithAsyncBuffer(a.cfg.Audit.AsyncBuffer),
		publisher.WithSink(a.hub),
	}
	if len(a.cfg.Kafka.Brokers) > 0 {
		sink, err := kafka.New(ctx, kafka.Config{
			Brokers:           a.cfg.Kafka.Brokers,
			Topic:             a.cfg.Kafka.Topic,
			Partitions:        3,
			ReplicationFactor: 1,
			OpsSampleRate:     a.cfg.Kafka.OpsSampleRate,
		}, kafka.WithMetrics(kafka.NewMetrics()), kafka.WithLogger(a.log))
		if err != nil {
			return fmt.Errorf("audit kafka sink: %w", err)
		}
		a.kafka = sink
		opts = append(opts, publisher.WithSink(sink))
	}
	a.publisher = publisher.NewPublisher(a.storage.audit, opts...)
	return nil
}

func (a *app) buildServices() {
	st, log, pub := a.storage, a.log, a.publisher

	a.catalogo = csvc.New(st.catalogo,
		csvc.WithLogger(log),
		csvc.WithAuditPublisher(pub),
		csvc.WithCacheTTL(catalogoCacheTTL),
	)
	a.lugares = lsvc.New(st.lugares,
		lsvc.WithLogger(log),
		lsvc.WithAuditPublisher(pub),
	)
	a.juntas = jsvc.New(st.juntas, a.catalogo, a.lugares,
		jsvc.WithLogger(log),
		jsvc.WithAuditPublisher(pub),
		jsvc.WithTx(st.tx),
		jsvc.WithMetrics(jmetrics.New()),
	)
	a.mandatarios = msvc.New(st.mandatarios, a.juntas, a.catalogo, a.lugares,
		msvc.WithLogger(log),
		msvc.WithAuditPublisher(pub),
		msvc.WithTx(st.tx),
	)
	a.usuarios = usvc.New(st.usuarios,
		usvc.WithLogger(log),
		usvc.WithAuditPublisher(pub),
		usvc.WithTx(st.tx),
	)
	a.certificados = certsvc.New(st.certificados, a.juntas, a.mandatarios, a.catalogo, a.usuarios,
		certsvc.WithLogger(log),
		certsvc.WithAuditPublisher(pub),
		certsvc.WithTx(st.tx),
		certsvc.WithMetrics(certmetrics.New()),
		certsvc.WithPublicURL(a.cfg.PublicURL),
	)
	a.reportes = rsvc.New(a.juntas, a.mandatarios, a.catalogo, a.lugares,
		rsvc.WithLogger(log),
		rsvc.WithAuditPublisher(pub),
	)

	var sessions authsvc.SessionStore = session.New()
	if a.redis != nil {
		sessions = session.NewRedis(a.redis.Client)
	}
	authOpts := []authsvc.Option{
		authsvc.WithLogger(log),
		authsvc.WithAuditPublisher(pub),
		authsvc.WithMailer(mailer.New(a.cfg.Mail, log)),
		authsvc.WithMetrics(authmetrics.New()),
		authsvc.WithTx(st.tx),
		authsvc.WithSessionTTL(a.cfg.Session.TTL),
		authsvc.WithPublicURL(a.cfg.PublicURL),
		authsvc.WithDeviceFingerprinting(true),
		authsvc.WithLockout(lockout.New(st.lockouts,
			lockout.WithConfig(lockout.Config{
				Attempts:     a.cfg.Lockout.Attempts,
				Window:       a.cfg.Lockout.Window,
				LockDuration: a.cfg.Lockout.Duration,
			}),
			lockout.WithLogger(log),
			lockout.WithAuditPublisher(pub),
		)),
	}
	if rc := a.cfg.Recaptcha; rc.Secret != "" {
		authOpts = append(authOpts, authsvc.WithCaptcha(
			recaptcha.NewHTTPVerifier(rc.VerifyURL, rc.Secret, rc.Action, rc.MinScore, nil),
		))
	} else {
		log.Warn("RECAPTCHA_SECRET is not set; login runs without captcha")
	}
	a.auth = authsvc.New(a.usuarios, sessions, st.resets,
		resettoken.New(a.cfg.Reset.Secret, a.cfg.Reset.TTL), authOpts...)
}

// seed loads the embedded Boyacá data and the configured Administrador.
func (a *app) seed(ctx context.Context) error {
	return a.seedFrom(ctx, nil)
}

func (a *app) seedFrom(ctx context.Context, raw []byte) error {
	data, err := seed.Load(raw)
	if err != nil {
		return err
	}
	s := seed.New(a.catalogo, a.lugares, a.usuarios, a.log)
	sum, err := s.Run(ctx, data)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	admin := a.cfg.Admin
	created, err := s.Admin(ctx, admin.Nombre, admin.Email, admin.Documento, admin.Password)
	if err != nil {
		return fmt.Errorf("seed administrador: %w", err)
	}
	a.log.Info("seed complete", "lugares", sum.Lugares, "catalogo", sum.Catalogo, "admin_created", created)
	return nil
}

func (a *app) router() http.Handler {
	cfg, log := a.cfg, a.log

	health := map[string]httpapi.HealthCheck{}
	if a.storage.db != nil {
		health["database"] = a.storage.db.PingContext
	}
	if a.redis != nil {
		health["redis"] = a.redis.Health
	}

	certificados := certhandler.New(a.certificados, log)
	return httpapi.NewRouter(httpapi.Config{
		BasePath:       cfg.BasePath,
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
		SessionCookie:  cfg.Session.CookieName,
	}, httpapi.Deps{
		Logger:   log,
		Metrics:  metrics.New(),
		Sessions: a.auth,
		Health:   health,
		Public: []httpapi.Routes{
			authhandler.New(a.auth, authhandler.CookieConfig{
				Name:   cfg.Session.CookieName,
				Secure: cfg.Session.CookieSecure,
				Path:   "/",
			}, log),
		},
		PublicParts: []httpapi.PublicRoutes{certificados},
		Protected: []httpapi.Routes{
			uhandler.New(a.usuarios, log),
			jhandler.New(a.juntas, log),
			mhandler.New(a.mandatarios, log),
			certificados,
			rhandler.New(a.reportes, log),
			chandler.New(a.catalogo, log),
			lhandler.New(a.lugares, log),
		},
		Streams: []httpapi.Routes{
			logshandler.New(a.storage.audit, a.hub, log,
				logshandler.WithAllowedOrigins(cfg.CORSOrigins)),
		},
	})
}

// close drains the audit pipeline before releasing connections.
func (a *app) close() {
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.kafka != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.kafka.Close(ctx); err != nil {
			a.log.Warn("kafka sink close failed", "error", err)
		}
		cancel()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.storage != nil && a.storage.db != nil {
		_ = a.storage.db.Close()
	}
}
