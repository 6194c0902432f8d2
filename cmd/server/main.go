// Command server runs the expedientes API. main wires stores, services and
// handlers; business logic lives in the internal packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	authhandler "expedientes/internal/auth/handler"
	"expedientes/internal/auth/lockout"
	authservice "expedientes/internal/auth/service"
	"expedientes/internal/auth/token"
	expedientehandler "expedientes/internal/expediente/handler"
	expedienteservice "expedientes/internal/expediente/service"
	expedientestore "expedientes/internal/expediente/store"
	indiciohandler "expedientes/internal/indicio/handler"
	indicioservice "expedientes/internal/indicio/service"
	indiciostore "expedientes/internal/indicio/store"
	"expedientes/internal/platform/config"
	"expedientes/internal/platform/httpserver"
	"expedientes/internal/platform/logger"
	"expedientes/internal/platform/metrics"
	platformredis "expedientes/internal/platform/redis"
	reporteshandler "expedientes/internal/reportes/handler"
	reportesservice "expedientes/internal/reportes/service"
	revisionhandler "expedientes/internal/revision/handler"
	revisionservice "expedientes/internal/revision/service"
	revisionstore "expedientes/internal/revision/store"
	httptransport "expedientes/internal/transport/http"
	usuariohandler "expedientes/internal/usuario/handler"
	usuarioservice "expedientes/internal/usuario/service"
	usuariostore "expedientes/internal/usuario/store"
	"expedientes/pkg/platform/audit"
	auditkafka "expedientes/pkg/platform/audit/kafka"
	auditmemory "expedientes/pkg/platform/audit/store/memory"
	auditpostgres "expedientes/pkg/platform/audit/store/postgres"
	auditworker "expedientes/pkg/platform/audit/worker"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	health := map[string]httptransport.HealthChecker{}

	var (
		expStore   expedientestore.Store
		indStore   indiciostore.Store
		revStore   revisionstore.Store
		usrStore   usuariostore.Store
		auditStore audit.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		health["database"] = func() error { return db.Ping() }

		var expOpts []expedientestore.PostgresOption
		if cfg.NumeroUnicoGlobal {
			expOpts = append(expOpts, expedientestore.WithGlobalNumeroUnicoPostgres())
		}
		expStore = expedientestore.NewPostgres(db, expOpts...)
		indStore = indiciostore.NewPostgres(db)
		revStore = revisionstore.NewPostgres(db)
		usrStore = usuariostore.NewPostgres(db)
		auditStore = auditpostgres.New(db)
	} else {
		log.Warn("no database configured, using in-memory stores")
		var expOpts []expedientestore.MemoryOption
		if cfg.NumeroUnicoGlobal {
			expOpts = append(expOpts, expedientestore.WithGlobalNumeroUnico())
		}
		expStore = expedientestore.NewMemory(expOpts...)
		indStore = indiciostore.NewMemory()
		revStore = revisionstore.NewMemory()
		usrStore = usuariostore.NewMemory()
		auditStore = auditmemory.NewInMemoryStore()
	}

	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := auditkafka.NewSink(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return fmt.Errorf("kafka audit sink: %w", err)
		}
		defer sink.Close()
		if err := sink.EnsureTopic(ctx, 3, 1); err != nil {
			return fmt.Errorf("ensure audit topic: %w", err)
		}
		auditStore = sink
	}

	// Services emit into the inbox so request latency never depends on the
	// audit backend; the worker drains it.
	inbox := make(chan audit.Event, 256)
	publisher := audit.NewPublisher(inboxStore{inbox: inbox, logger: log})
	worker := auditworker.NewWorker(auditStore, inbox, log)

	var lockStore lockout.Store = lockout.NewMemory()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		lockStore = lockout.NewRedis(redisClient.Client)
		health["redis"] = func() error { return redisClient.Health(context.Background()) }
	}

	lockouts, err := lockout.New(lockStore, cfg.Lockout,
		lockout.WithLogger(log),
		lockout.WithLockCallback(m.Lockouts.Inc),
	)
	if err != nil {
		return err
	}
	tokens := token.NewService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.TokenTTL)

	expedientes, err := expedienteservice.New(expStore, indStore,
		expedienteservice.WithLogger(log),
		expedienteservice.WithAuditPublisher(publisher),
		expedienteservice.WithMetrics(m),
	)
	if err != nil {
		return err
	}
	indicios, err := indicioservice.New(indStore, expStore,
		indicioservice.WithLogger(log),
		indicioservice.WithAuditPublisher(publisher),
		indicioservice.WithMetrics(m),
	)
	if err != nil {
		return err
	}
	revisiones, err := revisionservice.New(expStore, revStore,
		revisionservice.WithLogger(log),
		revisionservice.WithAuditPublisher(publisher),
		revisionservice.WithMetrics(m),
		revisionservice.WithUsuarioStore(usrStore),
	)
	if err != nil {
		return err
	}
	usuarios, err := usuarioservice.New(usrStore,
		usuarioservice.WithLogger(log),
		usuarioservice.WithAuditPublisher(publisher),
		usuarioservice.WithMetrics(m),
		usuarioservice.WithBcryptCost(cfg.BcryptCost),
	)
	if err != nil {
		return err
	}
	auth, err := authservice.New(usrStore, tokens,
		authservice.WithLogger(log),
		authservice.WithAuditPublisher(publisher),
		authservice.WithMetrics(m),
		authservice.WithLockout(lockouts),
	)
	if err != nil {
		return err
	}
	reportes, err := reportesservice.New(expStore, indStore, usrStore,
		reportesservice.WithLogger(log),
	)
	if err != nil {
		return err
	}

	authH := authhandler.New(auth, log)
	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log,
		Metrics:   m,
		Validator: tokens,
		Public:    []httptransport.PublicRegistrar{authH},
		Protected: []httptransport.Registrar{
			authH,
			expedientehandler.New(expedientes, log),
			indiciohandler.New(indicios, log),
			revisionhandler.New(revisiones, log),
			usuariohandler.New(usuarios, log),
			reporteshandler.New(reportes, log),
		},
		Health: health,
	})

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("audit worker: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info("starting expedientes API", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// inboxStore adapts the worker inbox to the audit.Store interface. A full
// inbox drops the event rather than stalling a request.
type inboxStore struct {
	inbox  chan<- audit.Event
	logger *slog.Logger
}

func (s inboxStore) Append(_ context.Context, event audit.Event) error {
	select {
	case s.inbox <- event:
		return nil
	default:
		s.logger.Warn("audit inbox full, dropping event", "action", event.Action)
		return nil
	}
}
