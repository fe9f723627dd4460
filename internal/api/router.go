// Package api serves the trip generation pipeline over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trip-workers/internal/common/logger"
	"trip-workers/internal/models"
)

type TripService interface {
	GenerateTrip(ctx context.Context, req models.TripRequest) (string, error)
	AttachPayment(ctx context.Context, tripID string) (string, error)
}

type TripReader interface {
	Get(ctx context.Context, id string) (*models.PersistedTrip, error)
}

// Checker reports whether a dependency is reachable.
type Checker func(ctx context.Context) error

type Options struct {
	AllowedOrigins []string
	// Checks run on /ready, keyed by dependency name.
	Checks map[string]Checker
	// MetricsHandler serves /metrics. Defaults to the global prometheus registry.
	MetricsHandler http.Handler
}

// NewRouter builds the chi router for the public API and operational endpoints.
func NewRouter(service TripService, trips TripReader, log logger.Logger, opts Options) http.Handler {
	log = log.With(map[string]interface{}{"component": "api"})
	h := &Handler{
		service: service,
		trips:   trips,
		checks:  opts.Checks,
		logger:  log,
	}

	metricsHandler := opts.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", h.health)
	r.Get("/ready", h.ready)
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(corsHandler(opts.AllowedOrigins))
		r.Use(chimiddleware.AllowContentType("application/json"))

		r.Post("/create-trip", h.createTrip)
		r.Get("/trips/{id}", h.getTrip)
		r.Post("/trips/{id}/payment-link", h.attachPaymentLink)
	})

	return r
}
