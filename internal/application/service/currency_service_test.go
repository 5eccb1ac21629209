// internal/application/service/currency_service_test.go
package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/damon-houk/rate-snapshot-service/internal/domain/entity"
	"github.com/damon-houk/rate-snapshot-service/internal/infrastructure/logger"
	"github.com/damon-houk/rate-snapshot-service/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestCurrencyService(repo *mocks.MockSnapshotRepository) *CurrencyService {
	log := logger.NewJSONLogger(io.Discard, logger.InfoLevel)
	return NewCurrencyService(repo, NewRangeReconstructor(repo, log), log)
}

func TestListAllCurrencies(t *testing.T) {
	repo := new(mocks.MockSnapshotRepository)
	service := newTestCurrencyService(repo)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		list := entity.CurrencyList{"eur": "Euro", "btc": "Bitcoin"}
		repo.On("Currencies", ctx).Return(list, nil).Once()

		result, err := service.ListAllCurrencies(ctx)

		assert.NoError(t, err)
		assert.Equal(t, list, result)
	})

	t.Run("Upstream failure", func(t *testing.T) {
		repo.On("Currencies", ctx).Return(nil, entity.ErrUpstreamUnavailable).Once()

		result, err := service.ListAllCurrencies(ctx)

		assert.ErrorIs(t, err, entity.ErrUpstreamUnavailable)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "failed to list currencies")
	})

	repo.AssertExpectations(t)
}

func TestGetRates(t *testing.T) {
	repo := new(mocks.MockSnapshotRepository)
	service := newTestCurrencyService(repo)
	ctx := context.Background()
	latest := snapshotOf("eur", jan1, map[string]string{"usd": "1.1", "gbp": "0.9", "jpy": "150"})

	t.Run("No targets returns full snapshot", func(t *testing.T) {
		repo.On("GetOrFetch", ctx, "eur", entity.Latest()).Return(latest, nil).Once()

		result, err := service.GetRates(ctx, "EUR", nil)

		require.NoError(t, err)
		assert.Same(t, latest, result)
	})

	t.Run("Comma separated and repeated targets", func(t *testing.T) {
		repo.On("GetOrFetch", ctx, "eur", entity.Latest()).Return(latest, nil).Once()

		result, err := service.GetRates(ctx, "eur", []string{"USD, jpy", " "})

		require.NoError(t, err)
		assert.Len(t, result.Rates, 2)
		assert.Contains(t, result.Rates, "usd")
		assert.Contains(t, result.Rates, "jpy")
	})

	t.Run("Blank targets behave like none", func(t *testing.T) {
		repo.On("GetOrFetch", ctx, "eur", entity.Latest()).Return(latest, nil).Once()

		result, err := service.GetRates(ctx, "eur", []string{"", ","})

		require.NoError(t, err)
		assert.Same(t, latest, result)
	})

	t.Run("Invalid base never reaches upstream", func(t *testing.T) {
		_, err := service.GetRates(ctx, "e/u", nil)
		assert.ErrorIs(t, err, entity.ErrInvalidCurrency)
	})

	t.Run("Unknown base", func(t *testing.T) {
		repo.On("GetOrFetch", ctx, "xyz", entity.Latest()).Return(nil, entity.ErrNotFound).Once()

		_, err := service.GetRates(ctx, "xyz", nil)
		assert.ErrorIs(t, err, entity.ErrNotFound)
	})

	repo.AssertExpectations(t)
}

func TestGetCryptoRates(t *testing.T) {
	repo := new(mocks.MockSnapshotRepository)
	service := newTestCurrencyService(repo)
	ctx := context.Background()
	latest := snapshotOf("btc", jan1, map[string]string{"usd": "42000", "eth": "18.5"})

	repo.On("GetOrFetch", ctx, "btc", entity.Latest()).Return(latest, nil).Once()

	result, err := service.GetCryptoRates(ctx, "BTC", []string{"eth"})

	require.NoError(t, err)
	assert.Equal(t, "btc", result.Base)
	assert.Len(t, result.Rates, 1)
	assert.Equal(t, "18.5", result.Rates["eth"].String())
	repo.AssertExpectations(t)
}

func TestGetSingleRate(t *testing.T) {
	repo := new(mocks.MockSnapshotRepository)
	service := newTestCurrencyService(repo)
	ctx := context.Background()
	latest := snapshotOf("usd", jan1, map[string]string{"try": "29.5"})

	t.Run("Success", func(t *testing.T) {
		repo.On("GetOrFetch", ctx, "usd", entity.Latest()).Return(latest, nil).Once()

		rate, err := service.GetSingleRate(ctx, "USD", "TRY")

		require.NoError(t, err)
		assert.Equal(t, "USD", rate.Base)
		assert.Equal(t, "TRY", rate.Target)
		assert.Equal(t, "29.5", rate.Rate.String())
		assert.Equal(t, jan1, rate.Date)
	})

	t.Run("Target missing", func(t *testing.T) {
		repo.On("GetOrFetch", ctx, "usd", entity.Latest()).Return(latest, nil).Once()

		_, err := service.GetSingleRate(ctx, "usd", "chf")
		assert.ErrorIs(t, err, entity.ErrTargetNotFound)
	})

	t.Run("Invalid target", func(t *testing.T) {
		_, err := service.GetSingleRate(ctx, "usd", "x")
		assert.ErrorIs(t, err, entity.ErrInvalidCurrency)
	})

	repo.AssertExpectations(t)
}

func TestGetHistoricalRates(t *testing.T) {
	repo := new(mocks.MockSnapshotRepository)
	service := newTestCurrencyService(repo)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		snapshot := snapshotOf("eur", jan1, map[string]string{"usd": "1.1"})
		repo.On("GetOrFetch", ctx, "eur", entity.On(jan1)).Return(snapshot, nil).Once()

		result, err := service.GetHistoricalRates(ctx, "eur", "2024-01-01")

		require.NoError(t, err)
		assert.Same(t, snapshot, result)
	})

	t.Run("Invalid date", func(t *testing.T) {
		for _, date := range []string{"2024/01/01", "01-01-2024", "2024-13-01", ""} {
			_, err := service.GetHistoricalRates(ctx, "eur", date)
			assert.ErrorIs(t, err, entity.ErrInvalidDate, date)
		}
	})

	t.Run("Date not published", func(t *testing.T) {
		day := time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
		repo.On("GetOrFetch", ctx, "eur", entity.On(day)).Return(nil, entity.ErrNotFound).Once()

		_, err := service.GetHistoricalRates(ctx, "eur", "1999-01-01")
		assert.ErrorIs(t, err, entity.ErrNotFound)
	})

	repo.AssertExpectations(t)
}

func TestGetRateRange(t *testing.T) {
	repo := new(mocks.MockSnapshotRepository)
	service := newTestCurrencyService(repo)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo.On("GetOrFetch", mock.Anything, "eur", entity.On(day(1))).
			Return(snapshotOf("eur", day(1), map[string]string{"usd": "1.1"}), nil).Once()
		repo.On("GetOrFetch", mock.Anything, "eur", entity.On(day(2))).
			Return(snapshotOf("eur", day(2), map[string]string{"usd": "1.2"}), nil).Once()

		series, err := service.GetRateRange(ctx, "EUR", "USD", "2024-01-01", "2024-01-02")

		require.NoError(t, err)
		require.Len(t, series, 2)
		assert.Equal(t, "EUR", series[0].Base)
		assert.Equal(t, day(2), series[1].Date)
	})

	t.Run("Start after end", func(t *testing.T) {
		_, err := service.GetRateRange(ctx, "eur", "usd", "2024-01-05", "2024-01-01")
		assert.ErrorIs(t, err, entity.ErrInvalidRange)
	})

	t.Run("Invalid date", func(t *testing.T) {
		_, err := service.GetRateRange(ctx, "eur", "usd", "2024-01-01", "tomorrow")
		assert.ErrorIs(t, err, entity.ErrInvalidDate)
	})

	repo.AssertExpectations(t)
}

func TestGetMinifiedRates(t *testing.T) {
	repo := new(mocks.MockSnapshotRepository)
	service := newTestCurrencyService(repo)
	ctx := context.Background()

	minified := snapshotOf("eur", jan1, map[string]string{"usd": "1.1"})
	repo.On("GetOrFetchMinified", ctx, "eur").Return(minified, nil).Once()
	repo.On("GetOrFetchMinified", ctx, "gbp").Return(nil, errors.New("boom")).Once()

	result, err := service.GetMinifiedRates(ctx, "EUR")
	require.NoError(t, err)
	assert.Same(t, minified, result)

	_, err = service.GetMinifiedRates(ctx, "gbp")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get minified gbp rates")

	repo.AssertExpectations(t)
}

func TestHealthCheck(t *testing.T) {
	service := newTestCurrencyService(new(mocks.MockSnapshotRepository))
	assert.Equal(t, HealthMessage, service.HealthCheck())
}
