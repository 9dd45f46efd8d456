// ABOUTME: Edit command for modifying existing notes.
// ABOUTME: Takes a new title or content by flag, or opens the content in $EDITOR.

package main

import (
	"fmt"

	"github.com/harper/notes/internal/ui"
	"github.com/spf13/cobra"
)

func newEditCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a note",
		Long:  `Replace a note's title and content. Flags that are not given keep the current value; with no flags the content opens in $EDITOR.`,
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

			title := note.Title
			if cmd.Flags().Changed("title") {
				title, _ = cmd.Flags().GetString("title")
			}
			content := note.Content
			if cmd.Flags().Changed("content") || cmd.Flags().Changed("file") || !cmd.Flags().Changed("title") {
				if content, err = readContent(cmd, note.Content); err != nil {
					return err
				}
			}

			if title == note.Title && content == note.Content {
				fmt.Fprintln(cmd.OutOrStdout(), "No changes made.")
				return nil
			}

			if _, err := a.svc.Update(cmd.Context(), id, title, content); err != nil {
				return noteError("update", id, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Updated note %d", id)))
			return nil
		},
	}
	cmd.Flags().String("title", "", "new title")
	cmd.Flags().String("content", "", "new content (inline)")
	cmd.Flags().String("file", "", `read new content from file ("-" for stdin)`)
	return cmd
}
