// Package handler internal/infrastructure/handler/conversion_handler.go
package handler

import (
	"net/http"

	"github.com/damon-houk/rate-snapshot-service/internal/application/service"
	"github.com/damon-houk/rate-snapshot-service/internal/infrastructure/logger"
	"github.com/damon-houk/rate-snapshot-service/internal/infrastructure/middleware"
	"github.com/gorilla/mux"
)

// ConversionHandler handles HTTP requests for currency conversion
type ConversionHandler struct {
	service *service.ConversionService
	logger  logger.Logger
}

// NewConversionHandler creates a new conversion handler
func NewConversionHandler(service *service.ConversionService, log logger.Logger) *ConversionHandler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &ConversionHandler{
		service: service,
		logger:  log,
	}
}

// Convert handles GET /v1/convert?from=&to=&amount=[&date=]
func (h *ConversionHandler) Convert(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()
	from, to, amount, date := query.Get("from"), query.Get("to"), query.Get("amount"), query.Get("date")

	h.logger.Info("Handling convert request", map[string]interface{}{
		"request_id": requestID,
		"from":       from,
		"to":         to,
		"date":       date,
	})

	if from == "" || to == "" || amount == "" {
		h.logger.Warn("Missing conversion parameter", map[string]interface{}{
			"request_id": requestID,
			"from":       from,
			"to":         to,
			"amount":     amount,
		})
		sendErrorResponse(w, h.logger, MessageMissingParameter+": from, to, amount", http.StatusBadRequest, requestID)
		return
	}

	conversion, err := h.service.Convert(r.Context(), from, to, amount, date)
	if err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}

	sendSuccessResponse(w, h.logger, newConversionResponse(conversion), MessageSuccess, requestID)
}

// RegisterRoutes registers the conversion handler routes
func (h *ConversionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/v1/convert", h.Convert).Methods(http.MethodGet)

	h.logger.Info("Conversion routes registered", map[string]interface{}{
		"routes": []string{
			"GET /v1/convert",
		},
	})
}
