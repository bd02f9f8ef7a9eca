package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates and configures a Chi router with all routes
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	// Scans over the large universes take a while
	r.Use(middleware.Timeout(5 * time.Minute))
	r.Use(MetricsMiddleware)

	// Metrics endpoint for Prometheus
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HandleHealth)

		// Scanning
		r.Post("/scan", h.HandleScan)
		r.Get("/results", h.HandleGetResults)

		// Trades
		r.Route("/trades", func(r chi.Router) {
			r.Get("/", h.HandleGetTrades)
			r.Post("/", h.HandleCreateTrades)
			r.Get("/summary", h.HandleGetSummary)
		})

		// Risk
		r.Get("/risk", h.HandleGetRisk)
	})

	return r
}
