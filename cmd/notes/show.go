// ABOUTME: Show command for displaying a single note.
// ABOUTME: Renders markdown content with glamour, or raw JSON with --json.

package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/harper/notes/internal/notes"
	"github.com/harper/notes/internal/ui"
	"github.com/spf13/cobra"
)

func newShowCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a note",
		Long:  `Display a note's full content with rendered markdown.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			note, err := a.svc.Get(cmd.Context(), id)
			if err != nil {
				return noteError("get", id, err)
			}

			out := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(note)
			}

			fmt.Fprint(out, ui.FormatNoteHeader(note))
			content, _ := ui.FormatNoteContent(note.Content)
			fmt.Fprint(out, content)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print the note as JSON")
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid note id %q: ids are integers", s)
	}
	return id, nil
}

func noteError(op string, id int64, err error) error {
	if notes.IsNotFound(err) {
		return fmt.Errorf("note %d not found", id)
	}
	return fmt.Errorf("failed to %s note %d: %w", op, id, err)
}
