package api

import (
	"net/http"

	"github.com/starford/notepdf/internal/models"
)

// StatusSource reports the converter state.
type StatusSource interface {
	LastStats() models.Stats
	LiveStats() models.Stats
	CacheLen() int
}

// ClientCounter reports the number of connected event stream clients.
type ClientCounter interface {
	ClientCount() int
}

// Handler holds API route handlers.
type Handler struct {
	status   StatusSource
	clients  ClientCounter
	source   string
	dest     string
	watching bool
}

// NewHandler creates a new Handler. clients may be nil.
func NewHandler(status StatusSource, clients ClientCounter, source, dest string, watching bool) *Handler {
	return &Handler{status: status, clients: clients, source: source, dest: dest, watching: watching}
}

// Status handles GET /api/status.
//
//	@Summary	Last sync pass and cache size
//	@Tags		status
//	@Produce	json
//	@Success	200	{object}	StatusResponse
//	@Security	BearerAuth
//	@Router		/status [get]
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	resp := StatusResponse{
		Source:   h.source,
		Dest:     h.dest,
		Cached:   h.status.CacheLen(),
		LastRun:  h.status.LastStats(),
		Live:     h.status.LiveStats(),
		Watching: h.watching,
	}
	if h.clients != nil {
		resp.Clients = h.clients.ClientCount()
	}
	writeJSON(w, http.StatusOK, resp)
}

// Live handles GET /health/live.
func Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
