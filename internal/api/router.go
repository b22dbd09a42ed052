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

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/rules", func(r chi.Router) {
			r.Get("/", s.handleListRules)
			r.Put("/", s.handlePutRules)
			r.Get("/document", s.handleGetDocument)
			r.Post("/persist", s.handlePersistRules)
			r.Get("/{id}", s.handleGetRule)
		})

		r.Get("/entities", s.handleListEntities)
	})

	return r
}

// handleHealth returns the server health status together with the state of
// the attached infrastructure probes.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}

	if s.db != nil {
		if err := s.db.HealthCheck(r.Context()); err != nil {
			checks["database"] = "unhealthy"
		} else {
			checks["database"] = "ok"
		}
	}
	if s.mqtt != nil {
		if err := s.mqtt.HealthCheck(r.Context()); err != nil {
			checks["mqtt"] = "disconnected"
		} else {
			checks["mqtt"] = "ok"
		}
	}

	status := "ok"
	for _, v := range checks {
		if v != "ok" {
			status = "degraded"
			break
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  status,
		"version": s.version,
		"checks":  checks,
	})
}

// handleListEntities returns metadata for every registered entity.
func (s *Server) handleListEntities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"entities": s.entities.List(),
		"count":    s.entities.Count(),
	})
}
