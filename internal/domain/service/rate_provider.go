package service

import (
	"context"

	"github.com/damon-houk/rate-snapshot-service/internal/domain/entity"
)

// RateProvider defines the interface for reading snapshots from the upstream provider.
// Implementations make exactly one upstream call per method invocation and do not retry.
type RateProvider interface {
	// FetchSnapshot retrieves and normalizes the snapshot for base at when
	FetchSnapshot(ctx context.Context, base string, when entity.When) (*entity.Snapshot, error)

	// FetchMinifiedSnapshot retrieves the minified latest snapshot for base
	FetchMinifiedSnapshot(ctx context.Context, base string) (*entity.Snapshot, error)

	// FetchCurrencies retrieves the provider's currency code to name listing
	FetchCurrencies(ctx context.Context) (entity.CurrencyList, error)
}
