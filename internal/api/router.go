package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Liveness probe (outside the versioned tree)
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Device endpoints
		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDevice)
				r.Put("/", s.handleSetDevice)
				r.Put("/attributes/{attrID}", s.handleSetAttribute)
			})
		})

		// Recent broker traffic
		r.Get("/messages", s.handleMessages)

		// System metrics
		r.Get("/system/metrics", s.handleMetrics)

		// WebSocket stream
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth reports liveness and broker connectivity.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"version":        s.version,
		"mqtt_connected": s.mqtt != nil && s.mqtt.IsConnected(),
	})
}
