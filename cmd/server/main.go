package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	adminhandler "opsconsole/internal/admin/handler"
	adminservice "opsconsole/internal/admin/service"
	adminstore "opsconsole/internal/admin/store"
	"opsconsole/internal/audit"
	auditkafka "opsconsole/internal/audit/kafka"
	auditworker "opsconsole/internal/audit/worker"
	"opsconsole/internal/identity"
	"opsconsole/internal/identity/lockout"
	kychandler "opsconsole/internal/kyc/handler"
	kycservice "opsconsole/internal/kyc/service"
	kycstore "opsconsole/internal/kyc/store"
	operatorhandler "opsconsole/internal/operator/handler"
	operatorservice "opsconsole/internal/operator/service"
	operatorstore "opsconsole/internal/operator/store"
	"opsconsole/internal/platform/config"
	"opsconsole/internal/platform/httpserver"
	"opsconsole/internal/platform/logger"
	"opsconsole/internal/platform/metrics"
	"opsconsole/internal/platform/postgres"
	platformredis "opsconsole/internal/platform/redis"
	"opsconsole/internal/provision"
	"opsconsole/internal/session"
	sessionhandler "opsconsole/internal/session/handler"
	httptransport "opsconsole/internal/transport/http"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal services.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Record stores: postgres when a DSN is configured, in-memory otherwise.
	pool, err := postgres.Connect(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	var (
		adminStore    adminstore.Store
		kycStore      kycstore.Store
		operatorStore operatorstore.Store
		auditStore    audit.Store
	)
	if pool != nil {
		adminStore = adminstore.NewPostgres(pool)
		kycStore = kycstore.NewPostgres(pool)
		operatorStore = operatorstore.NewPostgres(pool)

		db, err := audit.OpenPostgres(cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		auditStore = audit.NewPostgresStore(db)
	} else {
		log.Warn("no postgres DSN configured, using in-memory stores")
		adminStore = adminstore.NewMemory()
		kycStore = kycstore.NewMemory()
		operatorStore = operatorstore.NewMemory()
		auditStore = audit.NewMemoryStore()
	}

	// Sign-in lockout: shared via Redis when configured.
	var lockouts lockout.Store
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		lockouts = lockout.NewRedis(redisClient.Client, cfg.LockoutWindow)
	} else {
		lockouts = lockout.NewInMemory(cfg.LockoutWindow)
	}

	// Audit pipeline.
	publisher := audit.NewPublisher(256, audit.WithPublisherLogger(log))
	kafkaSink, err := auditkafka.New(ctx, cfg.Kafka, log)
	if err != nil {
		return err
	}
	defer kafkaSink.Close()

	workerOpts := []auditworker.Option{auditworker.WithLogger(log)}
	if kafkaSink != nil {
		workerOpts = append(workerOpts, auditworker.WithSink(kafkaSink))
	}
	worker := auditworker.New(auditStore, publisher.Inbox(), workerOpts...)

	// Identity provider, seeded with the one operator account.
	issuer := identity.NewTokenIssuer(cfg.JWTSigningKey, cfg.SessionTTL)
	provider := identity.NewInMemoryProvider(issuer,
		identity.WithLockoutStore(lockouts),
		identity.WithProviderLogger(log),
	)
	if _, err := provider.Seed(cfg.OperatorEmail, cfg.OperatorSecret); err != nil {
		return err
	}

	// Services.
	operators := operatorservice.New(operatorStore,
		operatorservice.WithLogger(log),
		operatorservice.WithAuditPublisher(publisher),
	)
	sessions := session.NewManager(provider, cfg.OperatorEmail, operators,
		session.WithLogger(log),
		session.WithAuditPublisher(publisher),
		session.WithMetrics(m),
	)
	defer sessions.Close()

	admins := adminservice.New(adminStore,
		adminservice.WithLogger(log),
		adminservice.WithAuditPublisher(publisher),
	)
	workflow := provision.New(provider, adminStore, sessions,
		provision.WithLogger(log),
		provision.WithAuditPublisher(publisher),
		provision.WithMetrics(m),
	)
	kyc := kycservice.New(kycStore,
		kycservice.WithLogger(log),
		kycservice.WithAuditPublisher(publisher),
		kycservice.WithMetrics(m),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:   log,
		Metrics:  m,
		Issuer:   issuer,
		Sessions: sessions,
		Auth:     sessionhandler.New(sessions, log),
		Admins:   adminhandler.New(admins, workflow, log),
		Kyc:      kychandler.New(kyc, log),
		Operator: operatorhandler.New(operators, log),
	})

	srv := httpserver.New(cfg.Addr, router)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		err := worker.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	group.Go(func() error {
		log.Info("starting operator console", "addr", cfg.Addr, "operator", cfg.OperatorEmail)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
