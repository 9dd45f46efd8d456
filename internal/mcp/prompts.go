// ABOUTME: MCP prompts for common note-taking workflows.
// ABOUTME: Summary prompts embed the notes themselves so the agent needs no extra calls.

package mcp

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/harper/notes/internal/models"
	"github.com/harper/notes/internal/query"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// summarizeLimit caps how many notes one summarize-notes prompt embeds.
const summarizeLimit = 20

func (s *Server) registerPrompts() {
	s.server.AddPrompt(&mcp.Prompt{
		Name:        "summarize-notes",
		Description: "Summarize the most recently updated notes, optionally only those matching a filter",
		Arguments: []*mcp.PromptArgument{
			{
				Name:        "q",
				Description: "Only include notes whose title or content contains this text",
				Required:    false,
			},
		},
	}, s.getSummarizeNotesPrompt)

	s.server.AddPrompt(&mcp.Prompt{
		Name:        "summarize-note",
		Description: "Generate a summary of an existing note",
		Arguments: []*mcp.PromptArgument{
			{
				Name:        "note_id",
				Description: "ID of the note to summarize",
				Required:    true,
			},
		},
	}, s.getSummarizeNotePrompt)

	s.server.AddPrompt(&mcp.Prompt{
		Name:        "create-meeting-notes",
		Description: "Create structured meeting notes with attendees, agenda, and action items",
		Arguments: []*mcp.PromptArgument{
			{
				Name:        "meeting_title",
				Description: "Title of the meeting",
				Required:    true,
			},
		},
	}, s.getMeetingNotesPrompt)
}

func (s *Server) getSummarizeNotesPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	filter := req.Params.Arguments["q"]
	page, err := s.svc.List(ctx, query.Params{Filter: filter, Page: 1, PageSize: summarizeLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	var b strings.Builder
	switch {
	case page.Total == 0 && filter != "":
		fmt.Fprintf(&b, "There are no notes matching %q. Say so briefly.\n", filter)
	case page.Total == 0:
		b.WriteString("There are no notes yet. Say so briefly.\n")
	default:
		fmt.Fprintf(&b, "Summarize the following %d of %d notes. Group related notes, call out action items, and cite note IDs.\n",
			len(page.Items), page.Total)
		for _, n := range page.Items {
			b.WriteString("\n")
			writeNote(&b, n)
		}
	}

	return userPrompt(b.String()), nil
}

func (s *Server) getSummarizeNotePrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	raw, ok := req.Params.Arguments["note_id"]
	if !ok || raw == "" {
		return nil, fmt.Errorf("note_id argument is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("note_id must be an integer: %q", raw)
	}
	note, err := s.svc.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get note %d: %w", id, err)
	}

	var b strings.Builder
	b.WriteString(`Please summarize this note, highlighting:
   - Main topic or theme
   - Key points or takeaways
   - Important details or action items

`)
	writeNote(&b, note)
	fmt.Fprintf(&b, "\nIf asked, use the update_note tool with id %d to add a \"Summary\" section at the top.", note.ID)
	return userPrompt(b.String()), nil
}

func (s *Server) getMeetingNotesPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	meetingTitle, ok := req.Params.Arguments["meeting_title"]
	if !ok || meetingTitle == "" {
		meetingTitle = "Meeting"
	}

	template := fmt.Sprintf(`Create meeting notes for: %s

Please structure the notes with the following sections:

## Attendees
- [List attendees]

## Agenda
1. [Topic 1]
2. [Topic 2]

## Decisions Made
- [Decision 1]

## Action Items
- [ ] [Action 1] - @owner - Due: [date]

Keep the content under 4000 characters, then use the add_note tool with the meeting title as the note title.`, meetingTitle)

	return userPrompt(template), nil
}

func writeNote(b *strings.Builder, n *models.Note) {
	fmt.Fprintf(b, "## [%d] %s\n", n.ID, n.Title)
	if n.Content != "" {
		b.WriteString(n.Content)
		b.WriteString("\n")
	}
}

func userPrompt(text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Messages: []*mcp.PromptMessage{
			{
				Role: "user",
				Content: &mcp.TextContent{
					Text: text,
				},
			},
		},
	}
}
