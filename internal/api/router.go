package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the status server routes. /health/live is always open;
// everything under /api goes through AuthMiddleware. sseHandler, if non-nil,
// is mounted at GET /api/events and mcpHandler, if non-nil, at /api/mcp.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler, mcpHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", Live)

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(authEnabled, token))
		r.Get("/status", h.Status)
		if sseHandler != nil {
			r.Get("/events", sseHandler.ServeHTTP)
		}
		if mcpHandler != nil {
			r.Handle("/mcp", mcpHandler)
		}
	})

	return r
}
