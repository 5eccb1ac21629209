// Package service internal/application/service/range_reconstructor.go
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/damon-houk/rate-snapshot-service/internal/domain/entity"
	"github.com/damon-houk/rate-snapshot-service/internal/domain/repository"
	"github.com/damon-houk/rate-snapshot-service/internal/infrastructure/logger"
	"github.com/damon-houk/rate-snapshot-service/internal/infrastructure/metrics"
	"github.com/damon-houk/rate-snapshot-service/internal/infrastructure/middleware"
	"golang.org/x/sync/errgroup"
)

const (
	defaultRangeConcurrency = 4
	// fetched days buffered ahead of the ordered consumer, per worker
	lookahead = 4
)

// RangeReconstructor stitches per-day snapshots into a rate series
type RangeReconstructor struct {
	repo        repository.SnapshotRepository
	concurrency int
	timeout     time.Duration
	logger      logger.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

// RangeOption configures a RangeReconstructor
type RangeOption func(*RangeReconstructor)

// WithConcurrency sets how many days are fetched at once
func WithConcurrency(n int) RangeOption {
	return func(r *RangeReconstructor) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithTimeout bounds a whole range query. Zero means only the caller's context applies.
func WithTimeout(timeout time.Duration) RangeOption {
	return func(r *RangeReconstructor) {
		r.timeout = timeout
	}
}

// WithRangeMetrics sets the collectors day outcomes are recorded into
func WithRangeMetrics(m *metrics.Metrics) RangeOption {
	return func(r *RangeReconstructor) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithClock overrides the clock used for observation timestamps
func WithClock(now func() time.Time) RangeOption {
	return func(r *RangeReconstructor) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRangeReconstructor creates a new range reconstructor
func NewRangeReconstructor(repo repository.SnapshotRepository, log logger.Logger, options ...RangeOption) *RangeReconstructor {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	r := &RangeReconstructor{
		repo:        repo,
		concurrency: defaultRangeConcurrency,
		logger:      log,
		metrics:     metrics.Nop(),
		now:         time.Now,
	}
	for _, option := range options {
		option(r)
	}
	return r
}

type dayResult struct {
	snapshot *entity.Snapshot
	err      error
}

// BuildSeries returns the base/target rate for every day in [start, end]
// that could be resolved, ascending by date. Days whose fetch fails or whose
// snapshot lacks target are skipped. The query only fails when start is
// after end, when ctx ends, or when every day failed on an upstream outage.
func (r *RangeReconstructor) BuildSeries(ctx context.Context, base, target string, start, end time.Time) (entity.RateSeries, error) {
	start, end = entity.TruncateDay(start), entity.TruncateDay(end)
	if start.After(end) {
		return nil, fmt.Errorf("%w: start %s is after end %s", entity.ErrInvalidRange,
			start.Format(entity.DateLayout), end.Format(entity.DateLayout))
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	requestID := middleware.GetRequestID(ctx)
	baseCode, targetCode := strings.ToUpper(base), strings.ToUpper(target)

	days := dayRange(start, end)
	results := make([]dayResult, len(days))
	ready := make([]chan struct{}, len(days))
	for i := range ready {
		ready[i] = make(chan struct{})
	}
	// fetched days waiting to be consumed in order
	pending := make(chan struct{}, r.concurrency*lookahead)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	launched := make(chan struct{})
	go func() {
		defer close(launched)
		for i, day := range days {
			select {
			case pending <- struct{}{}:
			case <-gctx.Done():
				return
			}
			i, day := i, day
			g.Go(func() error {
				defer close(ready[i])
				if err := ctx.Err(); err != nil {
					results[i].err = err
					return err
				}
				snapshot, err := r.repo.GetOrFetch(gctx, base, entity.On(day))
				results[i] = dayResult{snapshot: snapshot, err: err}
				if err != nil && ctx.Err() != nil {
					return ctx.Err()
				}
				return nil
			})
		}
	}()

	series := entity.RateSeries{}
	var fetched, failed, outages int

	for i, day := range days {
		select {
		case <-ready[i]:
		case <-gctx.Done():
		}
		if gctx.Err() != nil {
			break
		}
		result := results[i]
		results[i] = dayResult{}
		<-pending

		date := day.Format(entity.DateLayout)
		if result.err != nil {
			failed++
			if entity.IsOutage(result.err) {
				outages++
			}
			r.metrics.RangeDaysTotal.WithLabelValues(metrics.DayFailed).Inc()
			r.logger.Warn("Could not fetch rates for day, skipping", map[string]interface{}{
				"request_id": requestID,
				"base":       base,
				"date":       date,
				"error":      result.err.Error(),
			})
			continue
		}
		fetched++

		rate, ok := ResolveTarget(result.snapshot.Rates, target)
		if !ok {
			r.metrics.RangeDaysTotal.WithLabelValues(metrics.DayMissing).Inc()
			r.logger.Warn("Rate for target not found on day, skipping", map[string]interface{}{
				"request_id": requestID,
				"base":       base,
				"target":     target,
				"date":       date,
			})
			continue
		}

		r.metrics.RangeDaysTotal.WithLabelValues(metrics.DayResolved).Inc()
		series = append(series, entity.ExchangeRate{
			Base:       baseCode,
			Target:     targetCode,
			Rate:       rate,
			Date:       day,
			ObservedAt: r.now().UnixMilli(),
		})
	}

	<-launched
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		r.logger.Warn("Range query abandoned", map[string]interface{}{
			"request_id": requestID,
			"base":       base,
			"target":     target,
			"resolved":   len(series),
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("building %s/%s series: %w", base, target, err)
	}

	if fetched == 0 && failed > 0 && outages == failed {
		r.logger.Error("Every day of the range failed on an upstream outage", map[string]interface{}{
			"request_id": requestID,
			"base":       base,
			"target":     target,
			"days":       failed,
		})
		return nil, fmt.Errorf("building %s/%s series: %w", base, target, entity.ErrUpstreamUnavailable)
	}

	r.logger.Debug("Range series built", map[string]interface{}{
		"request_id": requestID,
		"base":       base,
		"target":     target,
		"start":      start.Format(entity.DateLayout),
		"end":        end.Format(entity.DateLayout),
		"resolved":   len(series),
		"failed":     failed,
	})

	return series, nil
}

// dayRange lists every day from start to end inclusive
func dayRange(start, end time.Time) []time.Time {
	days := make([]time.Time, 0, int(end.Sub(start).Hours()/24)+1)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		days = append(days, day)
	}
	return days
}
