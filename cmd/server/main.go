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
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"watsonmark/internal/audit"
	"watsonmark/internal/ledger"
	"watsonmark/internal/platform/config"
	"watsonmark/internal/platform/httpserver"
	"watsonmark/internal/platform/logger"
	platformredis "watsonmark/internal/platform/redis"
	"watsonmark/internal/registry/handler"
	"watsonmark/internal/registry/metrics"
	"watsonmark/internal/registry/service"
	"watsonmark/internal/registry/store"
	"watsonmark/internal/registry/store/verifycache"
	id "watsonmark/pkg/domain"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		records    store.RecordStore
		issuers    store.IssuerStore
		owners     ledger.Ledger
		txRunner   store.Tx
		auditStore audit.Store
	)
	if cfg.PostgresURL != "" {
		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx, db); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		records = store.NewPostgresRecordStore(db)
		issuers = store.NewPostgresIssuerStore(db)
		owners = ledger.NewPostgres(db)
		txRunner = store.NewPostgresTx(db)
		auditStore = audit.NewPostgresStore(db)
		log.Info("using postgres backend")
	} else {
		records = store.NewInMemoryRecordStore()
		issuers = store.NewInMemoryIssuerStore()
		owners = ledger.NewInMemory()
		txRunner = store.NewInMemoryTx()
		auditStore = audit.NewInMemoryStore()
		log.Info("using in-memory backend")
	}

	auditOpts := []audit.Option{audit.WithLogger(log)}
	sink, err := audit.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	if err != nil {
		return fmt.Errorf("connect audit sink: %w", err)
	}
	if sink != nil {
		defer func() {
			if err := sink.Close(); err != nil {
				log.Warn("audit sink close failed", "error", err)
			}
		}()
		auditOpts = append(auditOpts, audit.WithSink(sink))
		log.Info("audit fan-out enabled", "topic", cfg.Kafka.Topic)
	}
	auditor := audit.NewPublisher(auditStore, auditOpts...)

	var cache verifycache.Cache
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		cache = verifycache.NewRedis(redisClient.Client, cfg.Redis.CacheTTL)
		log.Info("using redis verify cache")
	} else {
		cache = verifycache.NewInMemory(cfg.Redis.CacheTTL)
	}

	registry, err := service.New(ctx, records, issuers, owners, id.Identity(cfg.InitialIssuer),
		service.WithLogger(log),
		service.WithAuditPublisher(auditor),
		service.WithMetrics(metrics.New()),
		service.WithVerifyCache(cache),
		service.WithVotingWindow(cfg.VotingWindow),
		service.WithTx(txRunner),
	)
	if err != nil {
		return fmt.Errorf("build registry service: %w", err)
	}

	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler.New(registry, log).Register(router)

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting watsonmark registry", "addr", cfg.Addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
