// ABOUTME: Remove command for deleting notes.
// ABOUTME: Asks for confirmation unless --force; removing an absent note is not an error.

package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/harper/notes/internal/notes"
	"github.com/harper/notes/internal/ui"
	"github.com/spf13/cobra"
)

func newRmCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Remove a note",
		Long:    `Permanently delete a note. Its id is never handed out again.`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")
			out := cmd.OutOrStdout()

			if !force {
				note, err := a.svc.Get(cmd.Context(), id)
				if notes.IsNotFound(err) {
					fmt.Fprintf(out, "Note %d does not exist.\n", id)
					return nil
				}
				if err != nil {
					return noteError("get", id, err)
				}

				fmt.Fprintf(out, "Delete note %q (%d)? [y/N] ", note.Title, note.ID)
				response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				response = strings.TrimSpace(strings.ToLower(response))
				if response != "y" && response != "yes" {
					fmt.Fprintln(out, "Cancelled.")
					return nil
				}
			}

			err = a.svc.Delete(cmd.Context(), id)
			switch {
			case notes.IsNotFound(err):
				fmt.Fprintf(out, "Note %d does not exist.\n", id)
			case err != nil:
				return noteError("delete", id, err)
			default:
				fmt.Fprintln(out, ui.Success(fmt.Sprintf("Deleted note %d", id)))
			}
			return nil
		},
	}
	cmd.Flags().BoolP("force", "f", false, "skip confirmation")
	return cmd
}
