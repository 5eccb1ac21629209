package handler

import (
	"time"

	"github.com/damon-houk/rate-snapshot-service/internal/application/service"
	"github.com/damon-houk/rate-snapshot-service/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Response is the envelope every endpoint answers with
type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// SnapshotResponse represents a set of rates for one base currency
type SnapshotResponse struct {
	Base  string                     `json:"base"`
	Date  string                     `json:"date"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// ExchangeRateResponse represents a single base/target rate
type ExchangeRateResponse struct {
	Base      string          `json:"base"`
	Target    string          `json:"target"`
	Rate      decimal.Decimal `json:"rate"`
	Date      string          `json:"date"`
	Timestamp int64           `json:"timestamp"`
}

// ConversionResponse represents the response for the convert endpoint
type ConversionResponse struct {
	From            string          `json:"from"`
	To              string          `json:"to"`
	OriginalAmount  decimal.Decimal `json:"original_amount"`
	ExchangeRate    decimal.Decimal `json:"exchange_rate"`
	ConvertedAmount decimal.Decimal `json:"converted_amount"`
	RateDate        string          `json:"rate_date"`
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(entity.DateLayout)
}

func newSnapshotResponse(snapshot *entity.Snapshot) SnapshotResponse {
	return SnapshotResponse{
		Base:  snapshot.Base,
		Date:  formatDate(snapshot.Date),
		Rates: snapshot.Rates,
	}
}

func newExchangeRateResponse(rate entity.ExchangeRate) ExchangeRateResponse {
	return ExchangeRateResponse{
		Base:      rate.Base,
		Target:    rate.Target,
		Rate:      rate.Rate,
		Date:      formatDate(rate.Date),
		Timestamp: rate.ObservedAt,
	}
}

func newSeriesResponse(series entity.RateSeries) []ExchangeRateResponse {
	resp := make([]ExchangeRateResponse, 0, len(series))
	for _, rate := range series {
		resp = append(resp, newExchangeRateResponse(rate))
	}
	return resp
}

func newConversionResponse(c *service.Conversion) ConversionResponse {
	return ConversionResponse{
		From:            c.From,
		To:              c.To,
		OriginalAmount:  c.OriginalAmount,
		ExchangeRate:    c.ExchangeRate,
		ConvertedAmount: c.ConvertedAmount,
		RateDate:        formatDate(c.RateDate),
	}
}
