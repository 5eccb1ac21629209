// Package handler internal/infrastructure/handler/response.go
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/damon-houk/rate-snapshot-service/internal/domain/entity"
	"github.com/damon-houk/rate-snapshot-service/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
)

func init() {
	// rates go out as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// Messages returned to clients. Internal error text never leaves the service.
const (
	MessageSuccess          = "Success"
	MessageInvalidRange     = "Start date cannot be after end date"
	MessageInvalidDate      = "Invalid date format. Use YYYY-MM-DD"
	MessageInvalidCurrency  = "Invalid currency code"
	MessageInvalidAmount    = "Amount must be a positive number"
	MessageNotFound         = "Currency or date not found"
	MessageTargetNotFound   = "Rate not found for the requested currency pair"
	MessageNoRates          = "No rates data available"
	MessageRateLimited      = "Rate limit exceeded, please try again later"
	MessageMalformed        = "Rate provider returned an unreadable response"
	MessageUnavailable      = "Rate provider is temporarily unavailable"
	MessageTimeout          = "Request timed out"
	MessageUnexpectedError  = "An unexpected error occurred"
	MessageMissingParameter = "Missing required query parameter"
)

// ErrorStatus maps err onto an HTTP status and a provider-neutral message
func ErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, entity.ErrInvalidRange):
		return http.StatusBadRequest, MessageInvalidRange
	case errors.Is(err, entity.ErrInvalidDate):
		return http.StatusBadRequest, MessageInvalidDate
	case errors.Is(err, entity.ErrInvalidCurrency):
		return http.StatusBadRequest, MessageInvalidCurrency
	case errors.Is(err, entity.ErrInvalidAmount):
		return http.StatusBadRequest, MessageInvalidAmount
	case errors.Is(err, entity.ErrTargetNotFound):
		return http.StatusNotFound, MessageTargetNotFound
	case errors.Is(err, entity.ErrNoRatesAvailable):
		return http.StatusNotFound, MessageNoRates
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound, MessageNotFound
	case errors.Is(err, entity.ErrRateLimited):
		return http.StatusTooManyRequests, MessageRateLimited
	case errors.Is(err, entity.ErrMalformedResponse):
		return http.StatusBadGateway, MessageMalformed
	case errors.Is(err, entity.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable, MessageUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, MessageTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, MessageTimeout
	default:
		return http.StatusInternalServerError, MessageUnexpectedError
	}
}

// NewRangeResponse builds the envelope of a range query. A non-nil err gives
// the failure envelope with its status; the series is ignored then.
func NewRangeResponse(series entity.RateSeries, err error, start, end, requestID string) (int, Response) {
	resp := Response{
		Timestamp: time.Now().UnixMilli(),
		RequestID: requestID,
	}
	if err != nil {
		status, message := ErrorStatus(err)
		resp.Message = message
		return status, resp
	}

	resp.Success = true
	resp.Message = fmt.Sprintf("Fetched %d rates from %s to %s", len(series), start, end)
	resp.Data = newSeriesResponse(series)
	return http.StatusOK, resp
}

// sendSuccessResponse writes a 200 envelope carrying data
func sendSuccessResponse(w http.ResponseWriter, log logger.Logger, data interface{}, message string, requestID string) {
	writeResponse(w, log, http.StatusOK, Response{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
		RequestID: requestID,
	})
}

// sendErrorResponse sends a standardized error response
func sendErrorResponse(w http.ResponseWriter, log logger.Logger, message string, statusCode int, requestID string) {
	log.Debug("Sending error response", map[string]interface{}{
		"request_id":  requestID,
		"status_code": statusCode,
		"message":     message,
	})

	writeResponse(w, log, statusCode, Response{
		Success:   false,
		Message:   message,
		Timestamp: time.Now().UnixMilli(),
		RequestID: requestID,
	})
}

// sendServiceError classifies err, logs it and sends the matching error response
func sendServiceError(w http.ResponseWriter, log logger.Logger, err error, requestID string) {
	status, message := ErrorStatus(err)

	fields := map[string]interface{}{
		"request_id": requestID,
		"status":     status,
		"error":      err.Error(),
	}
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		log.Error("Request failed", fields)
	} else {
		log.Warn("Request failed", fields)
	}

	sendErrorResponse(w, log, message, status, requestID)
}

func writeResponse(w http.ResponseWriter, log logger.Logger, statusCode int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error("Failed to encode response", map[string]interface{}{
			"request_id": resp.RequestID,
			"error":      err.Error(),
		})
	}
}
