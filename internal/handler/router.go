package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/workspace-booking/internal/auth"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter builds the HTTP API. Every route sees the optional actor; the
// booking routes require one.
func NewRouter(h *BookingHandler, authn *auth.Authenticator, rateLimitPerMin int, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(log))
	r.Use(CORS)
	r.Use(RateLimit(rateLimitPerMin))
	r.Use(authn.Middleware)

	r.Get("/health", HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/spaces", func(r chi.Router) {
		r.Get("/", h.ListSpaces)
		r.Get("/{id}", h.GetSpace)
		r.Get("/{id}/availability", h.Availability)
	})

	r.Route("/bookings", func(r chi.Router) {
		r.Use(auth.RequireActor)
		r.Post("/", h.CreateBooking)
		r.Get("/me", h.MyBookings)
		r.Get("/{id}", h.GetBooking)
		r.Delete("/{id}", h.CancelBooking)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Get("/bookings", h.AdminBookings)
		r.Put("/bookings/{id}", h.AdminUpdateBooking)
	})

	r.Route("/agent", func(r chi.Router) {
		r.Post("/chat", h.Chat)
		r.Get("/status", h.AgentStatus)
	})

	return r
}
