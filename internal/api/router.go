package api

import (
	"net/http"
	"route-optimizer-service/internal/api/handlers"
	"route-optimizer-service/internal/platform/metrics"
	"route-optimizer-service/internal/ports"
	"route-optimizer-service/internal/services"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Deps struct {
	Optimizer *services.Optimizer
	// Nil disables POST /v1/geocode (501).
	Geocoder       ports.Geocoder
	RequestTimeout time.Duration
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware)
	r.Use(chimiddleware.Recoverer)

	optHandler := &handlers.OptimizeHandler{Optimizer: deps.Optimizer, Timeout: deps.RequestTimeout}
	geoHandler := &handlers.GeocodeHandler{Geocoder: deps.Geocoder}

	r.Get("/health", handlers.Health)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/optimize", optHandler.Optimize)
		r.Post("/geocode", geoHandler.Geocode)
	})

	return r
}
