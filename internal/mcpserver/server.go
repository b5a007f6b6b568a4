// Package mcpserver provides an MCP (Model Context Protocol) server that lets
// LLM clients inspect sync progress and convert a single note on demand.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/notepdf/internal/models"
)

// Syncer is the part of notesync.Syncer the tools use.
type Syncer interface {
	LastStats() models.Stats
	LiveStats() models.Stats
	CacheLen() int
	SyncPath(ctx context.Context, rel string) (models.Outcome, error)
}

// Server wraps the MCP server with notepdf tools.
type Server struct {
	mcp    *server.MCPServer
	syncer Syncer
}

// New creates a new MCP server with all tools registered.
func New(syncer Syncer) *Server {
	s := &Server{syncer: syncer}

	s.mcp = server.NewMCPServer(
		"notepdf",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("sync_status",
		mcp.WithDescription("Statistics of the last full pass over the note tree, "+
			"of notes converted since then, and the number of cached fingerprints."),
	), s.syncStatus)

	s.mcp.AddTool(mcp.NewTool("convert_note",
		mcp.WithDescription("Convert one note to PDF if its content changed since it was last converted. "+
			"Unchanged notes are reported as skipped."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the note relative to the source root (e.g. Work/meeting.note)")),
	), s.convertNote)

	return s
}

// Handler returns the streamable HTTP transport for the server.
func (s *Server) Handler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type statusResult struct {
	LastRun models.Stats `json:"last_run"`
	Live    models.Stats `json:"live"`
	Cached  int          `json:"cached"`
}

func (s *Server) syncStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(statusResult{
		LastRun: s.syncer.LastStats(),
		Live:    s.syncer.LiveStats(),
		Cached:  s.syncer.CacheLen(),
	}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) convertNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	outcome, err := s.syncer.SyncPath(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if outcome == models.OutcomeFailed {
		return mcp.NewToolResultError(fmt.Sprintf("conversion failed: %s (see server log)", path)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s: %s", path, outcome)), nil
}
