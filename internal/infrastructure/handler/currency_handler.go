// Package handler internal/infrastructure/handler/currency_handler.go
package handler

import (
	"errors"
	"net/http"

	"github.com/damon-houk/rate-snapshot-service/internal/application/service"
	"github.com/damon-houk/rate-snapshot-service/internal/domain/entity"
	"github.com/damon-houk/rate-snapshot-service/internal/infrastructure/logger"
	"github.com/damon-houk/rate-snapshot-service/internal/infrastructure/middleware"
	"github.com/gorilla/mux"
)

const (
	messageHealthy      = "API is healthy"
	messageNoCryptoData = "No crypto rates data available"
	messageNoCryptoHits = "No crypto rates found for the requested targets"
)

// CurrencyHandler handles HTTP requests for rate queries
type CurrencyHandler struct {
	service *service.CurrencyService
	logger  logger.Logger
}

// NewCurrencyHandler creates a new currency handler
func NewCurrencyHandler(service *service.CurrencyService, log logger.Logger) *CurrencyHandler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &CurrencyHandler{
		service: service,
		logger:  log,
	}
}

// ListCurrencies handles GET /v1/currencies
func (h *CurrencyHandler) ListCurrencies(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	currencies, err := h.service.ListAllCurrencies(r.Context())
	if err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}

	sendSuccessResponse(w, h.logger, currencies, MessageSuccess, requestID)
}

// GetRates handles GET /v1/rates/{base}?targets=
func (h *CurrencyHandler) GetRates(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	base := mux.Vars(r)["base"]
	targets := r.URL.Query()["targets"]

	h.logger.Info("Handling rates request", map[string]interface{}{
		"request_id": requestID,
		"base":       base,
		"targets":    targets,
	})

	snapshot, err := h.service.GetRates(r.Context(), base, targets)
	if err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}

	sendSuccessResponse(w, h.logger, newSnapshotResponse(snapshot), MessageSuccess, requestID)
}

// GetSingleRate handles GET /v1/rate?from=&to=
func (h *CurrencyHandler) GetSingleRate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()
	from, to := query.Get("from"), query.Get("to")

	if from == "" || to == "" {
		h.logger.Warn("Missing from or to parameter", map[string]interface{}{
			"request_id": requestID,
			"from":       from,
			"to":         to,
		})
		sendErrorResponse(w, h.logger, MessageMissingParameter+": from, to", http.StatusBadRequest, requestID)
		return
	}

	rate, err := h.service.GetSingleRate(r.Context(), from, to)
	if err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}

	sendSuccessResponse(w, h.logger, newExchangeRateResponse(*rate), MessageSuccess, requestID)
}

// GetHistoricalRates handles GET /v1/rates/{base}/{date}
func (h *CurrencyHandler) GetHistoricalRates(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	vars := mux.Vars(r)

	snapshot, err := h.service.GetHistoricalRates(r.Context(), vars["base"], vars["date"])
	if err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}

	sendSuccessResponse(w, h.logger, newSnapshotResponse(snapshot), MessageSuccess, requestID)
}

// GetRateRange handles GET /v1/rates/{base}/{target}/range?start=&end=
func (h *CurrencyHandler) GetRateRange(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	vars := mux.Vars(r)
	query := r.URL.Query()
	start, end := query.Get("start"), query.Get("end")

	if start == "" || end == "" {
		sendErrorResponse(w, h.logger, MessageMissingParameter+": start, end", http.StatusBadRequest, requestID)
		return
	}

	series, err := h.service.GetRateRange(r.Context(), vars["base"], vars["target"], start, end)
	if err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}

	status, resp := NewRangeResponse(series, nil, start, end, requestID)
	writeResponse(w, h.logger, status, resp)
}

// GetCryptoRates handles GET /v1/crypto/{base}?targets=
func (h *CurrencyHandler) GetCryptoRates(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	base := mux.Vars(r)["base"]
	targets := r.URL.Query()["targets"]

	snapshot, err := h.service.GetCryptoRates(r.Context(), base, targets)
	if errors.Is(err, entity.ErrNoRatesAvailable) {
		sendErrorResponse(w, h.logger, messageNoCryptoData, http.StatusNotFound, requestID)
		return
	}
	if err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}

	message := MessageSuccess
	if len(snapshot.Rates) == 0 {
		message = messageNoCryptoHits
	}
	sendSuccessResponse(w, h.logger, newSnapshotResponse(snapshot), message, requestID)
}

// GetMinifiedRates handles GET /v1/rates/{base}/min
func (h *CurrencyHandler) GetMinifiedRates(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	snapshot, err := h.service.GetMinifiedRates(r.Context(), mux.Vars(r)["base"])
	if err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}

	sendSuccessResponse(w, h.logger, newSnapshotResponse(snapshot), MessageSuccess, requestID)
}

// HealthCheck handles GET /v1/health
func (h *CurrencyHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	sendSuccessResponse(w, h.logger, h.service.HealthCheck(), messageHealthy, middleware.GetRequestID(r.Context()))
}

// RegisterRoutes registers the currency handler routes on router
func (h *CurrencyHandler) RegisterRoutes(router *mux.Router) {
	// /min must be matched before /{date}
	router.HandleFunc("/v1/currencies", h.ListCurrencies).Methods(http.MethodGet)
	router.HandleFunc("/v1/rate", h.GetSingleRate).Methods(http.MethodGet)
	router.HandleFunc("/v1/rates/{base}", h.GetRates).Methods(http.MethodGet)
	router.HandleFunc("/v1/rates/{base}/min", h.GetMinifiedRates).Methods(http.MethodGet)
	router.HandleFunc("/v1/rates/{base}/{date}", h.GetHistoricalRates).Methods(http.MethodGet)
	router.HandleFunc("/v1/rates/{base}/{target}/range", h.GetRateRange).Methods(http.MethodGet)
	router.HandleFunc("/v1/crypto/{base}", h.GetCryptoRates).Methods(http.MethodGet)
	router.HandleFunc("/v1/health", h.HealthCheck).Methods(http.MethodGet)

	h.logger.Info("Currency routes registered", map[string]interface{}{
		"routes": []string{
			"GET /v1/currencies",
			"GET /v1/rate",
			"GET /v1/rates/{base}",
			"GET /v1/rates/{base}/min",
			"GET /v1/rates/{base}/{date}",
			"GET /v1/rates/{base}/{target}/range",
			"GET /v1/crypto/{base}",
			"GET /v1/health",
		},
	})
}
