// Package service internal/application/service/currency_service.go
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/damon-houk/rate-snapshot-service/internal/domain/entity"
	"github.com/damon-houk/rate-snapshot-service/internal/domain/repository"
	"github.com/damon-houk/rate-snapshot-service/internal/infrastructure/logger"
	"github.com/damon-houk/rate-snapshot-service/internal/infrastructure/middleware"
)

// HealthMessage is the payload of a successful health check
const HealthMessage = "Rate snapshot API is running!"

// CurrencyService answers rate queries against the snapshot repository
type CurrencyService struct {
	repo   repository.SnapshotRepository
	ranges *RangeReconstructor
	logger logger.Logger
	now    func() time.Time
}

// NewCurrencyService creates a new currency service
func NewCurrencyService(repo repository.SnapshotRepository, ranges *RangeReconstructor, log logger.Logger) *CurrencyService {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	if ranges == nil {
		ranges = NewRangeReconstructor(repo, log)
	}

	return &CurrencyService{
		repo:   repo,
		ranges: ranges,
		logger: log,
		now:    time.Now,
	}
}

// ListAllCurrencies returns the provider's currency code to name listing
func (s *CurrencyService) ListAllCurrencies(ctx context.Context) (entity.CurrencyList, error) {
	currencies, err := s.repo.Currencies(ctx)
	if err != nil {
		s.logFailure(ctx, "Failed to list currencies", err, nil)
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}
	return currencies, nil
}

// GetRates returns the latest snapshot for base, restricted to targets when any are given
func (s *CurrencyService) GetRates(ctx context.Context, base string, targets []string) (*entity.Snapshot, error) {
	return s.latestFiltered(ctx, "rates", base, targets)
}

// GetCryptoRates is GetRates for crypto bases such as btc or eth
func (s *CurrencyService) GetCryptoRates(ctx context.Context, base string, targets []string) (*entity.Snapshot, error) {
	return s.latestFiltered(ctx, "crypto rates", base, targets)
}

// GetSingleRate returns the latest from/to rate
func (s *CurrencyService) GetSingleRate(ctx context.Context, from, to string) (*entity.ExchangeRate, error) {
	from, err := entity.NormalizeCurrency(from)
	if err != nil {
		return nil, err
	}
	to, err = entity.NormalizeCurrency(to)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.repo.GetOrFetch(ctx, from, entity.Latest())
	if err != nil {
		s.logFailure(ctx, "Failed to get rates for single rate", err, map[string]interface{}{
			"from": from,
			"to":   to,
		})
		return nil, fmt.Errorf("failed to get %s rates: %w", from, err)
	}

	rate, err := SingleRate(snapshot, to, s.now())
	if err != nil {
		s.logger.Warn("Rate not resolvable from snapshot", map[string]interface{}{
			"request_id": middleware.GetRequestID(ctx),
			"from":       from,
			"to":         to,
			"error":      err.Error(),
		})
		return nil, err
	}
	return rate, nil
}

// GetHistoricalRates returns the snapshot published for base on date (YYYY-MM-DD)
func (s *CurrencyService) GetHistoricalRates(ctx context.Context, base, date string) (*entity.Snapshot, error) {
	base, err := entity.NormalizeCurrency(base)
	if err != nil {
		return nil, err
	}
	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.repo.GetOrFetch(ctx, base, entity.On(day))
	if err != nil {
		s.logFailure(ctx, "Failed to get historical rates", err, map[string]interface{}{
			"base": base,
			"date": date,
		})
		return nil, fmt.Errorf("failed to get %s rates for %s: %w", base, date, err)
	}
	if snapshot.Rates == nil {
		return nil, entity.ErrNoRatesAvailable
	}
	return snapshot, nil
}

// GetRateRange returns the base/target series between start and end inclusive
func (s *CurrencyService) GetRateRange(ctx context.Context, base, target, start, end string) (entity.RateSeries, error) {
	base, err := entity.NormalizeCurrency(base)
	if err != nil {
		return nil, err
	}
	target, err = entity.NormalizeCurrency(target)
	if err != nil {
		return nil, err
	}
	startDay, err := parseDate(start)
	if err != nil {
		return nil, err
	}
	endDay, err := parseDate(end)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Building rate range", map[string]interface{}{
		"request_id": middleware.GetRequestID(ctx),
		"base":       base,
		"target":     target,
		"start":      start,
		"end":        end,
	})

	series, err := s.ranges.BuildSeries(ctx, base, target, startDay, endDay)
	if err != nil {
		s.logFailure(ctx, "Failed to build rate range", err, map[string]interface{}{
			"base":   base,
			"target": target,
			"start":  start,
			"end":    end,
		})
		return nil, err
	}
	return series, nil
}

// GetMinifiedRates returns the minified latest snapshot for base
func (s *CurrencyService) GetMinifiedRates(ctx context.Context, base string) (*entity.Snapshot, error) {
	base, err := entity.NormalizeCurrency(base)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.repo.GetOrFetchMinified(ctx, base)
	if err != nil {
		s.logFailure(ctx, "Failed to get minified rates", err, map[string]interface{}{
			"base": base,
		})
		return nil, fmt.Errorf("failed to get minified %s rates: %w", base, err)
	}
	return snapshot, nil
}

// HealthCheck reports that the service is serving
func (s *CurrencyService) HealthCheck() string {
	return HealthMessage
}

func (s *CurrencyService) latestFiltered(ctx context.Context, kind, base string, targets []string) (*entity.Snapshot, error) {
	base, err := entity.NormalizeCurrency(base)
	if err != nil {
		return nil, err
	}
	targets = cleanTargets(targets)

	s.logger.Debug("Getting latest "+kind, map[string]interface{}{
		"request_id": middleware.GetRequestID(ctx),
		"base":       base,
		"targets":    targets,
	})

	snapshot, err := s.repo.GetOrFetch(ctx, base, entity.Latest())
	if err != nil {
		s.logFailure(ctx, "Failed to get latest "+kind, err, map[string]interface{}{
			"base": base,
		})
		return nil, fmt.Errorf("failed to get %s %s: %w", base, kind, err)
	}

	return FilterByTargets(snapshot, targets)
}

// logFailure logs err at ERROR, or at WARN when the caller went away
func (s *CurrencyService) logFailure(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{}, 2)
	}
	fields["request_id"] = middleware.GetRequestID(ctx)
	fields["error"] = err.Error()

	if ctx.Err() != nil {
		s.logger.Warn(msg, fields)
		return
	}
	s.logger.Error(msg, fields)
}

func parseDate(value string) (time.Time, error) {
	day, err := entity.ParseDate(strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q, use YYYY-MM-DD", entity.ErrInvalidDate, value)
	}
	return day, nil
}

// cleanTargets splits comma-separated entries and drops blanks
func cleanTargets(targets []string) []string {
	var cleaned []string
	for _, target := range targets {
		for _, part := range strings.Split(target, ",") {
			if part = strings.TrimSpace(part); part != "" {
				cleaned = append(cleaned, part)
			}
		}
	}
	return cleaned
}
