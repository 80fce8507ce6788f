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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"childminder/internal/dbs/registry"
	"childminder/internal/dbs/resolver"
	"childminder/internal/dbs/tracer"
	"childminder/internal/household/events"
	"childminder/internal/household/handler"
	"childminder/internal/household/service"
	"childminder/internal/household/store"
	"childminder/internal/platform/config"
	"childminder/internal/platform/database"
	"childminder/internal/platform/health"
	"childminder/internal/platform/kafka/producer"
	"childminder/internal/platform/logger"
	"childminder/internal/platform/metrics"
	redisclient "childminder/internal/platform/redis"
	httptransport "childminder/internal/transport/http"
	"childminder/pkg/platform/circuit"
)

const (
	shutdownTimeout   = 10 * time.Second
	poolStatsInterval = 15 * time.Second
	cachePurgeEvery   = time.Minute
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	log.Info("initializing childminder",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"degraded_as_not_found", cfg.Registry.DegradedAsNotFound,
	)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(reg)
	healthHandler := health.New(cfg.Environment)
	g, gctx := errgroup.WithContext(ctx)

	householdStore, closeStore, err := buildStore(cfg.Database, healthHandler, log)
	if err != nil {
		return err
	}
	defer closeStore()

	lookupCache, closeCache, err := buildCache(gctx, g, cfg.Redis, reg, healthHandler, log)
	if err != nil {
		return err
	}
	defer closeCache()

	publisher, closePublisher, err := buildPublisher(cfg.Kafka, healthHandler, log)
	if err != nil {
		return err
	}
	defer closePublisher()

	tr := tracer.NewOTel()
	registryMetrics := registry.NewMetrics(reg)
	registryClient := registry.NewHTTPClient(registry.Config{
		BaseURL: cfg.Registry.BaseURL,
		APIKey:  cfg.Registry.APIKey,
		Timeout: cfg.Registry.Timeout,
	},
		registry.WithTracer(tr),
		registry.WithMetrics(registryMetrics),
		registry.WithLogger(log),
	)
	guardedClient := registry.NewBreakerClient(registryClient, circuit.New("dbs-registry"), log)
	cachedClient := registry.NewCachingClient(guardedClient, lookupCache, cfg.Registry.CacheTTL,
		registry.WithCacheMetrics(registryMetrics),
		registry.WithCacheLogger(log),
	)
	dbsResolver := resolver.New(cachedClient,
		resolver.WithDegradedAsNotFound(cfg.Registry.DegradedAsNotFound),
		resolver.WithTracer(tr),
		resolver.WithMetrics(resolver.NewMetrics(reg)),
		resolver.WithLogger(log),
	)
	householdService := service.New(householdStore, dbsResolver,
		service.WithPublisher(publisher),
		service.WithMetrics(appMetrics),
		service.WithLogger(log),
	)

	router := httptransport.NewRouter(log, appMetrics, reg,
		healthHandler,
		handler.New(householdService, log),
	)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func buildStore(cfg config.DatabaseConfig, h *health.Handler, log *slog.Logger) (service.Store, func(), error) {
	pool, err := database.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	if pool == nil {
		log.Warn("DATABASE_URL not set, using in-memory household store")
		return store.NewInMemory(), func() {}, nil
	}
	h.RegisterCheck("postgres", pool.Health)
	log.Info("using postgres household store")
	return store.NewPostgres(pool.DB()), func() {
		if err := pool.Close(); err != nil {
			log.Error("failed to close database pool", "error", err)
		}
	}, nil
}

// buildCache picks Redis when configured, otherwise a process-local cache.
// Background upkeep for either runs on g until ctx is done.
func buildCache(ctx context.Context, g *errgroup.Group, cfg config.RedisConfig, reg prometheus.Registerer, h *health.Handler, log *slog.Logger) (registry.LookupCache, func(), error) {
	client, err := redisclient.New(ctx, cfg, reg)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		log.Warn("REDIS_URL not set, using in-memory registry lookup cache")
		cache := registry.NewMemoryCache()
		g.Go(func() error {
			every(ctx, cachePurgeEvery, func() { cache.Purge() })
			return nil
		})
		return cache, func() {}, nil
	}

	h.RegisterCheck("redis", client.Health)
	g.Go(func() error {
		every(ctx, poolStatsInterval, client.RecordPoolStats)
		return nil
	})
	log.Info("using redis registry lookup cache")
	return registry.NewRedisCache(client.Client), func() {
		if err := client.Close(); err != nil {
			log.Error("failed to close redis client", "error", err)
		}
	}, nil
}

func buildPublisher(cfg config.KafkaConfig, h *health.Handler, log *slog.Logger) (service.EventPublisher, func(), error) {
	if cfg.Brokers == "" {
		log.Warn("KAFKA_BROKERS not set, household events are not published")
		return events.NoopPublisher{}, func() {}, nil
	}
	p, err := producer.New(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	h.RegisterCheck("kafka", p.Health)
	log.Info("publishing household events", "topic", cfg.EventsTopic)
	return events.NewKafkaPublisher(p, cfg.EventsTopic, log), func() {
		if err := p.Close(); err != nil {
			log.Error("failed to close kafka producer", "error", err)
		}
	}, nil
}

func every(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
