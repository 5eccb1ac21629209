package handler

import (
	"net/http"

	"github.com/damon-houk/rate-snapshot-service/internal/infrastructure/logger"
	"github.com/damon-houk/rate-snapshot-service/internal/infrastructure/metrics"
	"github.com/damon-houk/rate-snapshot-service/internal/infrastructure/middleware"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the handlers, the middleware chain and /metrics.
// A nil gatherer leaves /metrics unregistered.
func NewRouter(currency *CurrencyHandler, conversion *ConversionHandler, log logger.Logger, m *metrics.Metrics, gatherer prometheus.Gatherer) *mux.Router {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	if m == nil {
		m = metrics.Nop()
	}

	router := mux.NewRouter()
	router.Use(middleware.RequestIDMiddleware, middleware.LoggingMiddleware(log), middleware.MetricsMiddleware(m))

	currency.RegisterRoutes(router)
	if conversion != nil {
		conversion.RegisterRoutes(router)
	}
	if gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sendErrorResponse(w, log, MessageNotFound, http.StatusNotFound, middleware.GetRequestID(r.Context()))
	})

	return router
}
