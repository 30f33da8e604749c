package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all API routes. A nil gatherer leaves /metrics out.
func SetupRoutes(handler *Handler, gatherer prometheus.Gatherer) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods(http.MethodGet)

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	// latest must be registered before {date}
	api.HandleFunc("/prices/latest", handler.GetLatestPrice).Methods(http.MethodGet)
	api.HandleFunc("/prices/{date}", handler.GetPrice).Methods(http.MethodGet)
	api.HandleFunc("/prices", handler.GetPrices).Methods(http.MethodGet)
	api.HandleFunc("/deliveries/{date}", handler.GetDeliveries).Methods(http.MethodGet)
	api.HandleFunc("/runs", handler.TriggerRun).Methods(http.MethodPost)

	return r
}
