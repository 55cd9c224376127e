package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"deedbook/internal/accesstoken"
	"deedbook/internal/admin"
	"deedbook/internal/audit"
	"deedbook/internal/platform/config"
	"deedbook/internal/platform/httpserver"
	"deedbook/internal/platform/logger"
	platformmetrics "deedbook/internal/platform/metrics"
	platformredis "deedbook/internal/platform/redis"
	propertyhandler "deedbook/internal/property/handler"
	propertymetrics "deedbook/internal/property/metrics"
	"deedbook/internal/property/service"
	"deedbook/internal/property/store"
	"deedbook/internal/settlement"
	"deedbook/internal/settlement/receipts"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal services; main only selects implementations from
// configuration and connects them.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Ledger and audit storage: Postgres when a database is configured,
	// in-memory otherwise.
	var (
		ledger     store.Ledger
		auditStore audit.Store
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to connect to postgres", "error", err.Error())
			os.Exit(1)
		}
		defer pool.Close()

		pgLedger := store.NewPostgres(pool)
		if err := pgLedger.EnsureSchema(ctx); err != nil {
			log.Error("failed to ensure ledger schema", "error", err.Error())
			os.Exit(1)
		}
		ledger = pgLedger

		db, err := audit.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open audit database", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()

		pgAudit := audit.NewPostgres(db)
		if err := pgAudit.EnsureSchema(ctx); err != nil {
			log.Error("failed to ensure audit schema", "error", err.Error())
			os.Exit(1)
		}
		auditStore = pgAudit
	} else {
		log.Info("no database configured, running in memory")
		ledger = store.NewInMemoryLedger()
		auditStore = audit.NewInMemoryStore()
	}

	// Receipt storage: Redis when configured, in-memory otherwise.
	var receiptStore receipts.Store = receipts.NewInMemoryStore()
	if cfg.Redis.URL != "" {
		redisClient, err := platformredis.New(cfg.Redis)
		if err != nil {
			log.Error("failed to connect to redis", "error", err.Error())
			os.Exit(1)
		}
		defer redisClient.Close()
		receiptStore = receipts.NewRedis(redisClient.Client)
	}

	// Audit events flow through an inbox worker so the request path never
	// waits on the audit store. Kafka, when configured, receives the same
	// events for downstream consumers.
	inbox := make(chan audit.Event, 256)
	worker := audit.NewWorker(auditStore, inbox)

	var publisher audit.Emitter = audit.NewInboxPublisher(inbox)
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := audit.NewKafkaPublisher(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err.Error())
			os.Exit(1)
		}
		defer kafka.Close()
		publisher = audit.NewMultiPublisher(publisher, kafka)
	}

	propMetrics := propertymetrics.New()
	httpMetrics := platformmetrics.New()

	// The in-process bank stands in for the payment rail; the opening
	// balance lets fresh dev accounts transact immediately.
	bank := settlement.NewInMemoryBank(settlement.WithOpeningBalance(1_000_000))

	svc, err := service.New(ledger, bank,
		service.WithLogger(log),
		service.WithAuditPublisher(publisher),
		service.WithMetrics(propMetrics),
		service.WithReceiptStore(receiptStore),
	)
	if err != nil {
		log.Error("failed to build property service", "error", err.Error())
		os.Exit(1)
	}

	tokens := accesstoken.NewService(cfg.Server.JWTSigningKey, "deedbook", "deedbook")

	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())
	accesstoken.NewHandler(tokens, log).Register(router)
	admin.New(svc, cfg.Server.AdminTokenHash, log).Register(router)
	propertyhandler.New(svc, log, httpMetrics, tokens).Register(router)

	srv := httpserver.New(cfg.Server.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		err := worker.Run(groupCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		log.Info("starting deedbook", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
