// Command server runs the impersonation login service: admins mint one-time
// login links, customers' browsers redeem them, and every attempt lands in
// the audit trail.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"ghostlogin/internal/admintoken"
	"ghostlogin/internal/audit"
	"ghostlogin/internal/customer"
	grantHandler "ghostlogin/internal/grant/handler"
	grantMetrics "ghostlogin/internal/grant/metrics"
	grantService "ghostlogin/internal/grant/service"
	"ghostlogin/internal/grant/store/auditlog"
	"ghostlogin/internal/platform/config"
	"ghostlogin/internal/platform/httpserver"
	"ghostlogin/internal/platform/kafka"
	"ghostlogin/internal/platform/logger"
	"ghostlogin/internal/platform/postgres"
	platformRedis "ghostlogin/internal/platform/redis"
	"ghostlogin/internal/storefront/login"
	"ghostlogin/internal/storefront/session"
	"ghostlogin/pkg/platform/middleware/adminauth"
	"ghostlogin/pkg/platform/middleware/metadata"
	"ghostlogin/pkg/platform/middleware/requestid"
	"ghostlogin/pkg/platform/middleware/requesttime"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage. Without a database URL everything stays in memory, which is
	// enough for local development and the test suite.
	var (
		grantStore  grantService.AuditLogStore
		directory   customer.Directory
		outboxStore audit.Store
	)
	if cfg.DatabaseURL != "" {
		if err := postgres.Migrate(cfg.DatabaseURL, log); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL, log)
		if err != nil {
			log.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		db, err := postgres.OpenSQL(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		grantStore = auditlog.NewPostgres(pool)
		directory = customer.NewPostgres(pool)
		outboxStore = audit.NewPostgres(db)
	} else {
		log.Warn("no database configured, using in-memory stores")
		grantStore = auditlog.NewMemory()
		directory = customer.NewMemory()
		outboxStore = audit.NewMemory()
	}

	// Sessions live in Redis when configured so they survive restarts.
	var sessions session.Store = session.NewMemory()
	redisClient, err := platformRedis.New(cfg.Redis)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		sessions = session.NewRedis(redisClient.Client)
	}

	// Audit events flow through the outbox; the worker ships them to Kafka
	// when brokers are configured.
	producer, err := kafka.NewProducer(ctx, cfg.KafkaBrokers, cfg.KafkaTopic, log)
	if err != nil {
		log.Error("kafka unavailable", "error", err)
		os.Exit(1)
	}

	metrics := grantMetrics.New()
	publisher := audit.NewPublisher(outboxStore)

	grants, err := grantService.New(grantStore, directory, log,
		grantService.WithAuditPublisher(publisher),
		grantService.WithMetrics(metrics),
		grantService.WithConfig(&grantService.Config{
			TokenLifetime:       cfg.TokenLifetime,
			DefaultStoreScopeID: cfg.DefaultStoreScopeID,
		}),
	)
	if err != nil {
		log.Error("failed to build grant service", "error", err)
		os.Exit(1)
	}

	logins := login.NewService(directory, sessions, cfg.SessionTTL, log)
	jwtService := admintoken.NewJWTService(cfg.JWTSigningKey, "ghostlogin")

	router := chi.NewRouter()
	router.Use(requestid.Middleware)
	router.Use(requesttime.Middleware)
	router.Use(metadata.ClientMetadata)

	h := grantHandler.New(grants, logins, grantHandler.Config{
		Enabled:      cfg.Enabled,
		BaseURL:      cfg.BaseURL,
		RedirectPath: cfg.RedirectPath,
	}, log, adminauth.RequireAdmin(jwtService, log))
	h.Register(router)

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting ghostlogin", "addr", cfg.Addr, "enabled", cfg.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if producer != nil {
		worker := audit.NewWorker(outboxStore, producer, log)
		group.Go(func() error {
			worker.Run(groupCtx)
			producer.Close()
			return nil
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
