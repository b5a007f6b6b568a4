package api

import "github.com/starford/notepdf/internal/models"

// StatusResponse is the payload of GET /api/status.
//
// LastRun covers the most recent full pass; Live counts notes synced since,
// by the watcher or through the MCP convert_note tool.
type StatusResponse struct {
	Source   string       `json:"source" example:"/volume1/Supernote/Note"`
	Dest     string       `json:"dest" example:"/volume1/Sync/Notes"`
	Cached   int          `json:"cached" example:"42"`
	LastRun  models.Stats `json:"last_run"`
	Live     models.Stats `json:"live"`
	Watching bool         `json:"watching"`
	Clients  int          `json:"clients" example:"1"`
}
