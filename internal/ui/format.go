// ABOUTME: Terminal UI formatting for notes output.
// ABOUTME: Uses glamour for markdown and fatih/color for styling.

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/harper/notes/internal/models"
	"github.com/harper/notes/internal/query"
)

const dateLayout = "2006-01-02 15:04"

var (
	faint = color.New(color.Faint).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
	cyan  = color.New(color.FgCyan).SprintFunc()
)

func FormatNoteListItem(note *models.Note) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("  %s  %s\n", faint(fmt.Sprintf("#%-5d", note.ID)), bold(note.Title)))
	sb.WriteString(fmt.Sprintf("         %s %s\n",
		faint("Updated:"),
		faint(note.SortTime().Local().Format(dateLayout))))

	return sb.String()
}

// FormatPageFooter tells the reader where the page sits in the filtered total.
func FormatPageFooter(page query.Page) string {
	if page.Total == 0 {
		return faint("No notes found.") + "\n"
	}
	if len(page.Items) == 0 {
		return faint(fmt.Sprintf("Page %d is past the end (%d notes).", page.Page, page.Total)) + "\n"
	}
	first := (page.Page-1)*page.PageSize + 1
	last := first + len(page.Items) - 1
	pages := (page.Total + page.PageSize - 1) / page.PageSize
	return faint(fmt.Sprintf("Showing %d-%d of %d (page %d of %d)", first, last, page.Total, page.Page, pages)) + "\n"
}

func FormatNoteContent(content string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		// Fallback to raw content if renderer fails
		return content, nil //nolint:nilerr // Intentional fallback
	}

	out, err := renderer.Render(content)
	if err != nil {
		return content, nil //nolint:nilerr // Intentional fallback
	}
	return out, nil
}

func FormatNoteHeader(note *models.Note) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s\n", bold(note.Title)))
	sb.WriteString(fmt.Sprintf("%s %s\n", faint("ID:"), cyan(note.ID)))
	sb.WriteString(fmt.Sprintf("%s %s\n", faint("Created:"), faint(note.CreatedAt.Local().Format(dateLayout))))
	if note.UpdatedAt != nil {
		sb.WriteString(fmt.Sprintf("%s %s\n", faint("Updated:"), faint(note.UpdatedAt.Local().Format(dateLayout))))
	}

	sb.WriteString(Separator())
	return sb.String()
}

func Separator() string {
	return faint(strings.Repeat("─", 50)) + "\n"
}

func Success(msg string) string {
	return color.New(color.FgGreen).Sprint("✓ ") + msg
}

func Error(msg string) string {
	return color.New(color.FgRed).Sprint("✗ ") + msg
}
