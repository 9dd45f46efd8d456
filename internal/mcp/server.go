// ABOUTME: MCP server for notes integration with AI agents.
// ABOUTME: Provides tools, resources, and prompts over the notes service.

package mcp

import (
	"context"

	"github.com/harper/notes/internal/notes"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
)

type Server struct {
	server *mcp.Server
	svc    *notes.Service
	log    zerolog.Logger
}

func NewServer(svc *notes.Service, log zerolog.Logger) *Server {
	s := &Server{svc: svc, log: log}

	s.server = mcp.NewServer(
		&mcp.Implementation{
			Name:    "notes",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			HasTools:     true,
			HasResources: true,
			HasPrompts:   true,
		},
	)

	s.registerTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// Serve speaks MCP over stdin/stdout until ctx is canceled or the client leaves.
func (s *Server) Serve(ctx context.Context) error {
	s.log.Info().Msg("mcp server starting on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
