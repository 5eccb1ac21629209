// internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/damon-houk/rate-snapshot-service/internal/domain/entity"
	"github.com/stretchr/testify/mock"
)

// MockRateProvider mocks the RateProvider interface
type MockRateProvider struct {
	mock.Mock
}

func (m *MockRateProvider) FetchSnapshot(ctx context.Context, base string, when entity.When) (*entity.Snapshot, error) {
	args := m.Called(ctx, base, when)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Snapshot), args.Error(1)
}

func (m *MockRateProvider) FetchMinifiedSnapshot(ctx context.Context, base string) (*entity.Snapshot, error) {
	args := m.Called(ctx, base)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Snapshot), args.Error(1)
}

func (m *MockRateProvider) FetchCurrencies(ctx context.Context) (entity.CurrencyList, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(entity.CurrencyList), args.Error(1)
}

// MockSnapshotRepository mocks the SnapshotRepository interface
type MockSnapshotRepository struct {
	mock.Mock
}

func (m *MockSnapshotRepository) GetOrFetch(ctx context.Context, base string, when entity.When) (*entity.Snapshot, error) {
	args := m.Called(ctx, base, when)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Snapshot), args.Error(1)
}

func (m *MockSnapshotRepository) GetOrFetchMinified(ctx context.Context, base string) (*entity.Snapshot, error) {
	args := m.Called(ctx, base)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Snapshot), args.Error(1)
}

func (m *MockSnapshotRepository) Currencies(ctx context.Context) (entity.CurrencyList, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(entity.CurrencyList), args.Error(1)
}
