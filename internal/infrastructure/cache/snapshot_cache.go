package cache

import (
	"context"
	"strings"
	"time"

	"github.com/damon-houk/rate-snapshot-service/internal/domain/entity"
	"github.com/damon-houk/rate-snapshot-service/internal/domain/service"
	"github.com/damon-houk/rate-snapshot-service/internal/infrastructure/logger"
	"github.com/damon-houk/rate-snapshot-service/internal/infrastructure/metrics"
	"github.com/damon-houk/rate-snapshot-service/internal/infrastructure/retry"
	"golang.org/x/sync/singleflight"
)

const (
	currenciesKey     = "currencies"
	minifiedSuffix    = ".min"
	defaultLoadBudget = 30 * time.Second
)

// SnapshotCache implements repository.SnapshotRepository on top of a
// RateProvider. Concurrent misses for one key share a single upstream load.
// Loads run detached from the caller's context: a caller that gives up
// returns immediately while the load finishes and is cached, or fails
// without writing anything.
type SnapshotCache struct {
	provider   service.RateProvider
	snapshots  Store[*entity.Snapshot]
	currencies Store[entity.CurrencyList]
	group      singleflight.Group
	retry      retry.Policy
	loadBudget time.Duration
	logger     logger.Logger
	metrics    *metrics.Metrics
}

// Option configures a SnapshotCache
type Option func(*SnapshotCache)

// WithRetryPolicy sets how transient upstream failures are retried.
// Retryable defaults to rate limiting and upstream outages.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(c *SnapshotCache) {
		if policy.Retryable == nil {
			policy.Retryable = entity.IsOutage
		}
		c.retry = policy
	}
}

// WithLoadBudget bounds one coalesced load, retries included
func WithLoadBudget(budget time.Duration) Option {
	return func(c *SnapshotCache) {
		if budget > 0 {
			c.loadBudget = budget
		}
	}
}

// WithLogger sets the cache logger
func WithLogger(log logger.Logger) Option {
	return func(c *SnapshotCache) {
		if log != nil {
			c.logger = log
		}
	}
}

// WithMetrics sets the collectors cache lookups are recorded into
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *SnapshotCache) {
		if m != nil {
			c.metrics = m
		}
	}
}

// NewSnapshotCache creates a snapshot cache over provider
func NewSnapshotCache(provider service.RateProvider, snapshots Store[*entity.Snapshot], currencies Store[entity.CurrencyList], options ...Option) *SnapshotCache {
	c := &SnapshotCache{
		provider:   provider,
		snapshots:  snapshots,
		currencies: currencies,
		retry:      retry.Policy{MaxAttempts: 1, Retryable: entity.IsOutage},
		loadBudget: defaultLoadBudget,
		logger:     logger.GetDefaultLogger(),
		metrics:    metrics.Nop(),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// SnapshotKey builds the cache key for base at when. Bases are lowercased so
// "EUR" and "eur" share an entry.
func SnapshotKey(base string, when entity.When) string {
	return strings.ToLower(base) + ":" + when.Key()
}

// GetOrFetch returns the cached snapshot for base at when, loading it on a miss
func (c *SnapshotCache) GetOrFetch(ctx context.Context, base string, when entity.When) (*entity.Snapshot, error) {
	base = strings.ToLower(base)
	key := SnapshotKey(base, when)

	return getOrLoad(ctx, c, c.snapshots, key, func(ctx context.Context) (*entity.Snapshot, error) {
		return c.provider.FetchSnapshot(ctx, base, when)
	})
}

// GetOrFetchMinified returns the cached minified latest snapshot for base
func (c *SnapshotCache) GetOrFetchMinified(ctx context.Context, base string) (*entity.Snapshot, error) {
	base = strings.ToLower(base)
	key := SnapshotKey(base, entity.Latest()) + minifiedSuffix

	return getOrLoad(ctx, c, c.snapshots, key, func(ctx context.Context) (*entity.Snapshot, error) {
		return c.provider.FetchMinifiedSnapshot(ctx, base)
	})
}

// Currencies returns the cached currency listing
func (c *SnapshotCache) Currencies(ctx context.Context) (entity.CurrencyList, error) {
	return getOrLoad(ctx, c, c.currencies, currenciesKey, c.provider.FetchCurrencies)
}

// Size returns the number of cached snapshots
func (c *SnapshotCache) Size() int {
	return c.snapshots.Size()
}

func getOrLoad[V any](ctx context.Context, c *SnapshotCache, store Store[V], key string, fetch func(context.Context) (V, error)) (V, error) {
	if value, ok := store.Get(key); ok {
		c.metrics.CacheLookupsTotal.WithLabelValues(metrics.CacheHit).Inc()
		return value, nil
	}
	c.metrics.CacheLookupsTotal.WithLabelValues(metrics.CacheMiss).Inc()

	ch := c.group.DoChan(key, func() (interface{}, error) {
		// a load that finished while we waited to enter the flight
		if value, ok := store.Get(key); ok {
			return value, nil
		}

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadBudget)
		defer cancel()

		value, err := retry.Do(loadCtx, c.retry, func(ctx context.Context, attempt int) (V, error) {
			if attempt > 0 {
				c.logger.Info("Retrying upstream fetch", map[string]interface{}{
					"key":     key,
					"attempt": attempt + 1,
				})
			}
			return fetch(ctx)
		})
		if err != nil {
			return nil, err
		}

		store.Put(key, value)
		return value, nil
	})

	var zero V
	select {
	case <-ctx.Done():
		c.logger.Debug("Caller gave up waiting for snapshot load", map[string]interface{}{
			"key":   key,
			"error": ctx.Err().Error(),
		})
		return zero, ctx.Err()
	case result := <-ch:
		if result.Err != nil {
			return zero, result.Err
		}
		return result.Val.(V), nil
	}
}
