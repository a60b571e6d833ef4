package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"donationpool/internal/events/kafka"
	"donationpool/internal/events/memory"
	"donationpool/internal/events/publisher"
	"donationpool/internal/host"
	jwttoken "donationpool/internal/jwt_token"
	"donationpool/internal/platform/config"
	"donationpool/internal/platform/httpserver"
	"donationpool/internal/platform/logger"
	platformmetrics "donationpool/internal/platform/metrics"
	"donationpool/internal/platform/postgres"
	platformredis "donationpool/internal/platform/redis"
	poolmetrics "donationpool/internal/pool/metrics"
	"donationpool/internal/pool/service"
	"donationpool/internal/pool/state"
	pgstate "donationpool/internal/pool/state/postgres"
	redisstate "donationpool/internal/pool/state/redis"
	httptransport "donationpool/internal/transport/http"
	dErrors "donationpool/pkg/domain-errors"
	"donationpool/pkg/platform/circuit"
	"donationpool/pkg/platform/tx"
)

// main wires the pool core to its stores, event sinks and HTTP surface.
// Business rules live in internal/pool; this file only assembles them.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "donationpool: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	level, _ := cfg.SlogLevel()
	log := logger.New(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	infra, err := buildStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.close()

	recorder := memory.NewRecorder(cfg.Events.FeedSize)
	sinks := []publisher.Sink{recorder}
	if len(cfg.Events.KafkaBrokers) > 0 {
		sink, err := kafka.New(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic)
		if err != nil {
			return err
		}
		defer sink.Close()
		if err := sink.EnsureTopic(ctx, cfg.Events.KafkaPartitions, cfg.Events.KafkaReplication); err != nil {
			return err
		}
		sinks = append(sinks, publisher.Guard(sink, circuit.New("kafka"), log))
		infra.checks["kafka"] = sink.Health
		log.Info("kafka event sink enabled", "topic", cfg.Events.KafkaTopic)
	}
	events := publisher.New(sinks, publisher.WithAsyncBuffer(cfg.Events.BufferSize), publisher.WithLogger(log))
	defer events.Close()

	vault := host.NewVault()
	svc := service.New(infra.store, vault,
		service.WithLogger(log),
		service.WithPublisher(events),
		service.WithMetrics(poolmetrics.New(reg)),
		service.WithTracer(otel.Tracer("donationpool/internal/pool/service")),
	)
	chain := host.New(svc, vault, host.WithRunner(infra.runner), host.WithLogger(log))

	if err := bootstrap(ctx, chain, cfg, log); err != nil {
		return err
	}

	jwtService := jwttoken.NewJWTService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience)
	handler := httptransport.New(chain, recorder, jwttoken.NewJWTServiceAdapter(jwtService), log)
	router := httptransport.NewRouter(handler, httptransport.RouterConfig{
		Logger:         log,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		HTTPMetrics:    platformmetrics.NewHTTP(reg),
		HealthChecks:   infra.checks,
		RequestTimeout: cfg.RequestTimeout,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting donationpool", "addr", cfg.Addr, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down", "timeout", cfg.ShutdownTimeout)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// bootstrap initializes the pool with the configured administrator. A pool
// restored from a durable store is already initialized.
func bootstrap(ctx context.Context, chain *host.Host, cfg *config.Config, log *slog.Logger) error {
	admin, ok := cfg.Admin()
	if !ok {
		log.Warn("no admin address configured; pool stays uninitialized")
		return nil
	}
	err := chain.Initialize(ctx, admin)
	if dErrors.HasCode(err, dErrors.CodeAlreadyInitialized) {
		log.Info("pool already initialized")
		return nil
	}
	if err != nil {
		return fmt.Errorf("initialize pool: %w", err)
	}
	log.Info("pool initialized", "admin", admin.Hex())
	return nil
}

type infrastructure struct {
	store  state.Store
	runner tx.Runner
	checks map[string]httptransport.HealthCheck
	close  func()
}

func buildStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (*infrastructure, error) {
	infra := &infrastructure{
		runner: tx.Passthrough{},
		checks: map[string]httptransport.HealthCheck{},
		close:  func() {},
	}
	switch cfg.Store {
	case config.StoreRedis:
		client, err := platformredis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		infra.store = redisstate.New(client.Client, redisstate.WithPrefix(cfg.Redis.KeyPrefix))
		infra.checks["redis"] = client.Health
		infra.close = func() { _ = client.Close() }
	case config.StorePostgres:
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		if err := pgstate.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		store := pgstate.New(db)
		infra.store = store
		infra.runner = tx.NewSQLRunner(db, cfg.Postgres.TxTimeout)
		infra.checks["postgres"] = store.Health
		infra.close = func() { _ = db.Close() }
	default:
		infra.store = state.NewInMemory()
	}
	log.Info("state store ready", "backend", cfg.Store)
	return infra, nil
}
