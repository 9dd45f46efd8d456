// ABOUTME: Add command for creating new notes.
// ABOUTME: Supports inline content, file input, stdin, or $EDITOR.

package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/harper/notes/internal/ui"
	"github.com/spf13/cobra"
)

func newAddCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a new note",
		Long: `Create a new note with the given title. Content can be provided via --content,
--file (use "-" for stdin), or $EDITOR when neither is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readContent(cmd, "")
			if err != nil {
				return err
			}

			note, err := a.svc.Create(cmd.Context(), args[0], content)
			if err != nil {
				return fmt.Errorf("failed to create note: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Created note %d", note.ID)))
			return nil
		},
	}
	cmd.Flags().String("content", "", "note content (inline)")
	cmd.Flags().String("file", "", `read content from file ("-" for stdin)`)
	return cmd
}

// readContent takes content from --content or --file when either was given,
// otherwise from $EDITOR seeded with initial.
func readContent(cmd *cobra.Command, initial string) (string, error) {
	if cmd.Flags().Changed("content") {
		return cmd.Flags().GetString("content")
	}
	if cmd.Flags().Changed("file") {
		path, _ := cmd.Flags().GetString("file")
		var (
			data []byte
			err  error
		)
		if path == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(path) //nolint:gosec // User-specified file path is expected CLI behavior
		}
		if err != nil {
			return "", fmt.Errorf("failed to read content: %w", err)
		}
		return string(data), nil
	}

	content, err := openEditor(initial)
	if err != nil {
		return "", fmt.Errorf("failed to open editor: %w", err)
	}
	return content, nil
}

func openEditor(initial string) (string, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vim"
	}

	tmpFile, err := os.CreateTemp("", "notes-*.md")
	if err != nil {
		return "", err
	}
	defer func() {
		_ = os.Remove(tmpFile.Name()) // Best-effort cleanup
	}()

	if initial != "" {
		if _, err := tmpFile.WriteString(initial); err != nil {
			_ = tmpFile.Close()
			return "", fmt.Errorf("failed to write initial content: %w", err)
		}
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	cmd := exec.Command(editor, tmpFile.Name()) //nolint:gosec // Launching $EDITOR is expected CLI behavior
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(tmpFile.Name())
	if err != nil {
		return "", err
	}

	return string(data), nil
}
