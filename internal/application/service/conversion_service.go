// Package service internal/application/service/conversion_service.go
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
	"github.com/shopspring/decimal"
)

// convertedPlaces is the rounding applied to converted amounts
const convertedPlaces = 2

// Conversion is an amount expressed in another currency
type Conversion struct {
	From            string          `json:"from"`
	To              string          `json:"to"`
	OriginalAmount  decimal.Decimal `json:"original_amount"`
	ExchangeRate    decimal.Decimal `json:"exchange_rate"`
	ConvertedAmount decimal.Decimal `json:"converted_amount"`
	RateDate        time.Time       `json:"rate_date"`
}

// ConversionService converts amounts between currencies
type ConversionService struct {
	repo   repository.SnapshotRepository
	logger logger.Logger
}

// NewConversionService creates a new conversion service
func NewConversionService(repo repository.SnapshotRepository, log logger.Logger) *ConversionService {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &ConversionService{
		repo:   repo,
		logger: log,
	}
}

// Convert expresses amount of from in to, using the rate published on date
// or the latest rate when date is empty
func (s *ConversionService) Convert(ctx context.Context, from, to, amount, date string) (*Conversion, error) {
	requestID := middleware.GetRequestID(ctx)

	from, err := entity.NormalizeCurrency(from)
	if err != nil {
		return nil, err
	}
	to, err = entity.NormalizeCurrency(to)
	if err != nil {
		return nil, err
	}

	original, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil || !original.IsPositive() {
		s.logger.Warn("Invalid conversion amount", map[string]interface{}{
			"request_id": requestID,
			"amount":     amount,
		})
		return nil, fmt.Errorf("%w: %q", entity.ErrInvalidAmount, amount)
	}

	when := entity.Latest()
	if date != "" {
		day, err := parseDate(date)
		if err != nil {
			return nil, err
		}
		when = entity.On(day)
	}

	s.logger.Info("Converting amount", map[string]interface{}{
		"request_id": requestID,
		"from":       from,
		"to":         to,
		"when":       when.Key(),
	})

	snapshot, err := s.repo.GetOrFetch(ctx, from, when)
	if err != nil {
		s.logger.Error("Failed to get exchange rate", map[string]interface{}{
			"request_id": requestID,
			"from":       from,
			"when":       when.Key(),
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("failed to get exchange rate: %w", err)
	}

	rate, err := SingleRate(snapshot, to, time.Now())
	if err != nil {
		return nil, err
	}

	converted := original.Mul(rate.Rate).Round(convertedPlaces)

	s.logger.Info("Conversion completed", map[string]interface{}{
		"request_id":       requestID,
		"from":             from,
		"to":               to,
		"original_amount":  original.String(),
		"exchange_rate":    rate.Rate.String(),
		"converted_amount": converted.String(),
		"rate_date":        rate.Date.Format(entity.DateLayout),
	})

	return &Conversion{
		From:            rate.Base,
		To:              rate.Target,
		OriginalAmount:  original,
		ExchangeRate:    rate.Rate,
		ConvertedAmount: converted,
		RateDate:        rate.Date,
	}, nil
}
