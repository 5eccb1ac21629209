// Package repository internal/domain/repository/snapshot_repository.go
package repository

import (
	"context"

	"github.com/damon-houk/rate-snapshot-service/internal/domain/entity"
)

// SnapshotRepository defines the interface for cached snapshot access
type SnapshotRepository interface {
	// GetOrFetch returns the cached snapshot for base at when, fetching it on a miss
	GetOrFetch(ctx context.Context, base string, when entity.When) (*entity.Snapshot, error)

	// GetOrFetchMinified returns the cached minified latest snapshot for base
	GetOrFetchMinified(ctx context.Context, base string) (*entity.Snapshot, error)

	// Currencies returns the cached currency listing
	Currencies(ctx context.Context) (entity.CurrencyList, error)
}
