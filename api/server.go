/*
server.go - Ops HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions for the read-only ops surface. Everything the bot shows in
  Discord is also readable here for dashboards and spot checks; nothing
  here can write to the sheet.

ROUTES:
  GET /healthz              Liveness + sheet reachability flag
  GET /api/leaderboard      Ranked counts (?window=, ?group=rep|manager)
  GET /api/totals           Org-wide counts for every window

SECURITY NOTE:
  No authentication. The listener is meant to bind a private address;
  exposing it publishes the team's sales counts.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/salesbison: server startup and shutdown
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", h.Healthz)

	r.Route("/api", func(r chi.Router) {
		r.Get("/leaderboard", h.Leaderboard)
		r.Get("/totals", h.Totals)
	})

	return r
}
