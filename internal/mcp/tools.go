// ABOUTME: MCP tools for note CRUD and the paged listing.
// ABOUTME: Maps service failures to tool errors so agents see the reason.

package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harper/notes/internal/models"
	"github.com/harper/notes/internal/notes"
	"github.com/harper/notes/internal/query"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	// add_note
	s.server.AddTool(&mcp.Tool{
		Name:        "add_note",
		Description: "Create a new note with title and content",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"title": {"type": "string", "description": "Note title, at most 200 characters"},
				"content": {"type": "string", "description": "Note content, at most 4000 characters"}
			},
			"required": ["title"]
		}`),
	}, s.handleAddNote)

	// list_notes
	s.server.AddTool(&mcp.Tool{
		Name:        "list_notes",
		Description: "List notes one page at a time, optionally filtered by a case-insensitive substring",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"q": {"type": "string", "description": "Substring to match in title or content"},
				"page": {"type": "integer", "description": "Page number", "default": 1},
				"page_size": {"type": "integer", "description": "Notes per page (max 100)", "default": 10},
				"sort": {"type": "string", "enum": ["updated", "created", "title", "id"], "default": "updated"},
				"dir": {"type": "string", "enum": ["asc", "desc"], "default": "desc"}
			}
		}`),
	}, s.handleListNotes)

	// get_note
	s.server.AddTool(&mcp.Tool{
		Name:        "get_note",
		Description: "Get a note by ID",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "integer", "description": "Note ID"}
			},
			"required": ["id"]
		}`),
	}, s.handleGetNote)

	// update_note
	s.server.AddTool(&mcp.Tool{
		Name:        "update_note",
		Description: "Update a note's title or content; omitted fields keep their value",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "integer", "description": "Note ID"},
				"title": {"type": "string", "description": "New title"},
				"content": {"type": "string", "description": "New content"}
			},
			"required": ["id"]
		}`),
	}, s.handleUpdateNote)

	// delete_note
	s.server.AddTool(&mcp.Tool{
		Name:        "delete_note",
		Description: "Delete a note",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "integer", "description": "Note ID"}
			},
			"required": ["id"]
		}`),
	}, s.handleDeleteNote)
}

// Tool handlers.
func (s *Server) handleAddNote(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return nil, err
	}

	note, err := s.svc.Create(ctx, params.Title, params.Content)
	if err != nil {
		return s.toolError("create note", err), nil
	}
	return textResult(fmt.Sprintf("Created note %d", note.ID)), nil
}

type listResult struct {
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	Notes    []*models.Note `json:"notes"`
}

func (s *Server) handleListNotes(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Q        string `json:"q"`
		Page     int    `json:"page"`
		PageSize int    `json:"page_size"`
		Sort     string `json:"sort"`
		Dir      string `json:"dir"`
	}
	params.Page = query.DefaultPage
	params.PageSize = query.DefaultPageSize
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
			return nil, err
		}
	}

	page, err := s.svc.List(ctx, query.Params{
		Filter:   params.Q,
		Page:     params.Page,
		PageSize: params.PageSize,
		Sort:     params.Sort,
		Dir:      params.Dir,
	})
	if err != nil {
		return s.toolError("list notes", err), nil
	}
	return jsonResult(listResult{Total: page.Total, Page: page.Page, PageSize: page.PageSize, Notes: page.Items})
}

func (s *Server) handleGetNote(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return nil, err
	}

	note, err := s.svc.Get(ctx, params.ID)
	if err != nil {
		return s.toolError(fmt.Sprintf("get note %d", params.ID), err), nil
	}
	return jsonResult(note)
}

func (s *Server) handleUpdateNote(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		ID      int64   `json:"id"`
		Title   *string `json:"title"`
		Content *string `json:"content"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return nil, err
	}

	note, err := s.svc.Get(ctx, params.ID)
	if err != nil {
		return s.toolError(fmt.Sprintf("find note %d", params.ID), err), nil
	}

	title, content := note.Title, note.Content
	if params.Title != nil {
		title = *params.Title
	}
	if params.Content != nil {
		content = *params.Content
	}

	note, err = s.svc.Update(ctx, params.ID, title, content)
	if err != nil {
		return s.toolError(fmt.Sprintf("update note %d", params.ID), err), nil
	}
	return textResult(fmt.Sprintf("Updated note %d", note.ID)), nil
}

func (s *Server) handleDeleteNote(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return nil, err
	}

	if err := s.svc.Delete(ctx, params.ID); err != nil {
		return s.toolError(fmt.Sprintf("delete note %d", params.ID), err), nil
	}
	return textResult(fmt.Sprintf("Deleted note %d", params.ID)), nil
}

// toolError reports a failed call to the agent. Input and lookup failures are
// the agent's to fix; anything else is also logged.
func (s *Server) toolError(op string, err error) *mcp.CallToolResult {
	if !notes.IsNotFound(err) && !notes.IsValidation(err) {
		s.log.Error().Err(err).Str("op", op).Msg("mcp tool failed")
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("failed to %s: %v", op, err)},
		},
		IsError: true,
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return textResult(string(data)), nil
}
