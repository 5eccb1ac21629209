// Package service internal/application/service/rate_query.go
package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/damon-houk/rate-snapshot-service/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// SingleRate extracts the base/target rate from snapshot. The target is
// matched case-insensitively and the result carries the snapshot's date.
func SingleRate(snapshot *entity.Snapshot, target string, observedAt time.Time) (*entity.ExchangeRate, error) {
	if snapshot == nil || snapshot.Rates == nil {
		return nil, entity.ErrNoRatesAvailable
	}

	rate, ok := ResolveTarget(snapshot.Rates, target)
	if !ok {
		return nil, fmt.Errorf("rate for %s to %s: %w", snapshot.Base, target, entity.ErrTargetNotFound)
	}

	return &entity.ExchangeRate{
		Base:       strings.ToUpper(snapshot.Base),
		Target:     strings.ToUpper(target),
		Rate:       rate,
		Date:       snapshot.Date,
		ObservedAt: observedAt.UnixMilli(),
	}, nil
}

// FilterByTargets returns a view of snapshot restricted to targets.
// An empty targets list returns snapshot itself. Matching is
// case-insensitive and keeps the provider's key casing. No overlap yields
// an empty rate map, not an error.
func FilterByTargets(snapshot *entity.Snapshot, targets []string) (*entity.Snapshot, error) {
	if snapshot == nil || snapshot.Rates == nil {
		return nil, entity.ErrNoRatesAvailable
	}
	if len(targets) == 0 {
		return snapshot, nil
	}

	wanted := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		wanted[strings.ToLower(target)] = struct{}{}
	}

	rates := make(map[string]decimal.Decimal, len(targets))
	for code, rate := range snapshot.Rates {
		if _, ok := wanted[strings.ToLower(code)]; ok {
			rates[code] = rate
		}
	}

	return &entity.Snapshot{
		Base:  snapshot.Base,
		Date:  snapshot.Date,
		Rates: rates,
	}, nil
}

// ResolveTarget finds target in rates trying, in order, the lowercase key,
// the uppercase key and a case-insensitive scan.
func ResolveTarget(rates map[string]decimal.Decimal, target string) (decimal.Decimal, bool) {
	if rate, ok := rates[strings.ToLower(target)]; ok {
		return rate, true
	}
	if rate, ok := rates[strings.ToUpper(target)]; ok {
		return rate, true
	}
	for code, rate := range rates {
		if strings.EqualFold(code, target) {
			return rate, true
		}
	}
	return decimal.Decimal{}, false
}
