package main

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/damon-houk/rate-snapshot-service/internal/application/service"
	"github.com/damon-houk/rate-snapshot-service/internal/config"
	"github.com/damon-houk/rate-snapshot-service/internal/domain/entity"
	"github.com/damon-houk/rate-snapshot-service/internal/infrastructure/api"
	"github.com/damon-houk/rate-snapshot-service/internal/infrastructure/cache"
	"github.com/damon-houk/rate-snapshot-service/internal/infrastructure/logger"
	"github.com/damon-houk/rate-snapshot-service/internal/infrastructure/metrics"
	"github.com/damon-houk/rate-snapshot-service/internal/infrastructure/retry"
	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// app holds the wired components shared by the commands
type app struct {
	logger     logger.Logger
	registry   *prometheus.Registry
	metrics    *metrics.Metrics
	snapshots  *cache.SnapshotCache
	currencies *service.CurrencyService
	conversion *service.ConversionService
	db         *badger.DB
	janitor    *cache.Janitor
}

// newApp wires the service, writing logs to logOut
func newApp(cfg *config.Config, logOut io.Writer) (*app, error) {
	log := logger.New(logOut, logger.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logger.SetDefaultLogger(log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	client := api.NewCurrencyAPIClient(cfg.Provider.BaseURL,
		api.WithHTTPClient(&http.Client{Timeout: cfg.Provider.Timeout}),
		api.WithLatestTag(cfg.Provider.LatestTag),
		api.WithRateLimit(cfg.Provider.RequestsPerSecond, cfg.Provider.Burst),
		api.WithLogger(log.WithField("component", "provider")),
		api.WithMetrics(m),
	)

	a := &app{logger: log, registry: registry, metrics: m}

	var snapshotStore cache.Store[*entity.Snapshot]
	var currencyStore cache.Store[entity.CurrencyList]
	switch cfg.Cache.Backend {
	case config.CacheBackendBadger:
		db, err := cache.OpenInMemoryBadger()
		if err != nil {
			return nil, fmt.Errorf("failed to open badger cache: %w", err)
		}
		a.db = db
		storeLog := log.WithField("component", "cache")
		snapshotStore = cache.NewBadgerStore[*entity.Snapshot](db, "snapshot", cfg.Cache.TTL, storeLog)
		currencyStore = cache.NewBadgerStore[entity.CurrencyList](db, "currencies", cfg.Cache.TTL, storeLog)
	default:
		memorySnapshots := cache.NewMemoryStore[*entity.Snapshot](cfg.Cache.TTL)
		memoryCurrencies := cache.NewMemoryStore[entity.CurrencyList](cfg.Cache.TTL)
		snapshotStore, currencyStore = memorySnapshots, memoryCurrencies
		// badger expires entries itself
		if cfg.Cache.TTL > 0 {
			a.janitor = cache.NewJanitor(cfg.Cache.TTL, log.WithField("component", "cache"), memorySnapshots, memoryCurrencies)
			a.janitor.Start()
		}
	}

	a.snapshots = cache.NewSnapshotCache(client, snapshotStore, currencyStore,
		cache.WithRetryPolicy(retry.Policy{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			InitialDelay: cfg.Retry.InitialDelay,
			MaxDelay:     cfg.Retry.MaxDelay,
		}),
		cache.WithLoadBudget(loadBudget(cfg)),
		cache.WithLogger(log.WithField("component", "cache")),
		cache.WithMetrics(m),
	)

	ranges := service.NewRangeReconstructor(a.snapshots, log.WithField("component", "range"),
		service.WithConcurrency(cfg.Range.Concurrency),
		service.WithTimeout(cfg.Range.Timeout),
		service.WithRangeMetrics(m),
	)
	a.currencies = service.NewCurrencyService(a.snapshots, ranges, log)
	a.conversion = service.NewConversionService(a.snapshots, log)

	log.Info("Application wired", map[string]interface{}{
		"provider":          cfg.Provider.BaseURL,
		"cache_backend":     cfg.Cache.Backend,
		"cache_ttl":         cfg.Cache.TTL.String(),
		"range_concurrency": cfg.Range.Concurrency,
	})

	return a, nil
}

// loadBudget bounds one upstream load including its retries
func loadBudget(cfg *config.Config) time.Duration {
	attempts := time.Duration(cfg.Retry.MaxAttempts)
	return (cfg.Provider.Timeout + cfg.Retry.MaxDelay) * attempts
}

func (a *app) close() {
	if a.janitor != nil {
		a.janitor.Stop()
	}
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("Error closing badger cache", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
