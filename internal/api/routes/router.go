package routes

import (
	"net/http"

	"github.com/careconnect/booking-backend/internal/api/handlers"
	"github.com/careconnect/booking-backend/internal/api/middleware"
	"github.com/careconnect/booking-backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	appointmentHandler *handlers.AppointmentHandler
	credentialsHandler *handlers.CalendarCredentialsHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	appointmentHandler *handlers.AppointmentHandler,
	credentialsHandler *handlers.CalendarCredentialsHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux: http.NewServeMux(),

		appointmentHandler: appointmentHandler,
		credentialsHandler: credentialsHandler,

		cacheMiddleware: cacheMiddleware,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Availability endpoints
	r.mux.HandleFunc("GET /api/providers/{id}/availability", r.appointmentHandler.GetAvailability)

	// Appointment endpoints
	r.mux.HandleFunc("POST /api/appointments", r.appointmentHandler.BookAppointment)
	r.mux.HandleFunc("POST /api/appointments/{id}/cancel", r.appointmentHandler.CancelAppointment)
	r.mux.HandleFunc("GET /api/appointments/{id}", r.appointmentHandler.GetAppointment)
	r.mux.HandleFunc("GET /api/patients/{id}/appointments", r.appointmentHandler.ListPatientAppointments)
	r.mux.HandleFunc("GET /api/providers/{id}/appointments", r.appointmentHandler.ListProviderAppointments)

	// Calendar connection endpoints
	if r.credentialsHandler != nil {
		r.mux.HandleFunc("PUT /api/patients/{id}/calendar/credentials", r.credentialsHandler.SetCredentials)
		r.mux.HandleFunc("DELETE /api/patients/{id}/calendar/credentials", r.credentialsHandler.DeleteCredentials)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	// Apply cache middleware if available
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
