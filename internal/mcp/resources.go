// ABOUTME: MCP resources for exposing notes as readable markdown.
// ABOUTME: Allows AI agents to read a note via the notes://note/{id} URI.

package mcp

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/harper/notes/internal/notes"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const noteURIPrefix = "notes://note/"

func (s *Server) registerResources() {
	s.server.AddResourceTemplate(
		&mcp.ResourceTemplate{
			URITemplate: noteURIPrefix + "{id}",
			Name:        "Note",
			Description: "Access individual notes by ID",
			MIMEType:    "text/markdown",
		},
		s.handleReadResource,
	)
}

func (s *Server) handleReadResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	raw, ok := strings.CutPrefix(req.Params.URI, noteURIPrefix)
	if !ok {
		return nil, fmt.Errorf("invalid resource URI: %s", req.Params.URI)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	note, err := s.svc.Get(ctx, id)
	if notes.IsNotFound(err) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      req.Params.URI,
				MIMEType: "text/markdown",
				Text:     fmt.Sprintf("# %s\n\n%s", note.Title, note.Content),
			},
		},
	}, nil
}
