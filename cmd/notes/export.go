// ABOUTME: Export command for backing up notes.
// ABOUTME: Writes one JSON document or a directory of markdown files with YAML front matter.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harper/notes/internal/models"
	"github.com/harper/notes/internal/ui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const exportVersion = "1.0"

type ExportNote struct {
	ID        int64      `json:"id" yaml:"id"`
	Title     string     `json:"title" yaml:"title"`
	Content   string     `json:"content" yaml:"-"`
	CreatedAt time.Time  `json:"created_at" yaml:"created"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" yaml:"updated,omitempty"`
}

type ExportData struct {
	ExportedAt time.Time    `json:"exported_at"`
	Version    string       `json:"version"`
	Notes      []ExportNote `json:"notes"`
}

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export notes",
		Long:  `Export notes to JSON or markdown format, oldest id first.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			outputPath, _ := cmd.Flags().GetString("output")
			noteID, _ := cmd.Flags().GetInt64("note")

			var list []*models.Note
			if cmd.Flags().Changed("note") {
				note, err := a.svc.Get(cmd.Context(), noteID)
				if err != nil {
					return noteError("get", noteID, err)
				}
				list = []*models.Note{note}
			} else {
				all, err := a.svc.All(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to list notes: %w", err)
				}
				list = all
			}

			switch format {
			case "json":
				return exportJSON(cmd, list, outputPath)
			case "md":
				return exportMarkdown(cmd, list, outputPath)
			default:
				return fmt.Errorf("unknown format: %s", format)
			}
		},
	}
	cmd.Flags().StringP("format", "f", "json", "export format (json|md)")
	cmd.Flags().StringP("output", "o", "", "output path (json: file, default stdout; md: directory, default ./export)")
	cmd.Flags().Int64P("note", "n", 0, "single note ID to export")
	return cmd
}

func toExport(n *models.Note) ExportNote {
	return ExportNote{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func exportJSON(cmd *cobra.Command, list []*models.Note, outputPath string) error {
	export := ExportData{
		ExportedAt: models.Now(),
		Version:    exportVersion,
		Notes:      make([]ExportNote, 0, len(list)),
	}
	for _, n := range list {
		export.Notes = append(export.Notes, toExport(n))
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return err
	}

	if outputPath == "" || outputPath == "-" {
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	if err := os.WriteFile(outputPath, data, 0600); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Exported %d notes to %s", len(list), outputPath)))
	return nil
}

func exportMarkdown(cmd *cobra.Command, list []*models.Note, outputDir string) error {
	if outputDir == "" {
		outputDir = "export"
	}
	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return err
	}

	for _, n := range list {
		data, err := markdownWithFrontMatter(toExport(n))
		if err != nil {
			return err
		}
		filename := fmt.Sprintf("%d-%s.md", n.ID, sanitizeFilename(n.Title))
		if err := os.WriteFile(filepath.Join(outputDir, filename), data, 0600); err != nil {
			return err
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Exported %d notes to %s", len(list), outputDir)))
	return nil
}

func markdownWithFrontMatter(en ExportNote) ([]byte, error) {
	frontmatter, err := yaml.Marshal(en)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.Write(frontmatter)
	sb.WriteString("---\n\n")
	sb.WriteString(en.Content)
	return []byte(sb.String()), nil
}

func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "-",
		"?", "-", "\"", "-", "<", "-", ">", "-", "|", "-",
	)
	name = replacer.Replace(name)
	if r := []rune(name); len(r) > 100 {
		name = string(r[:100])
	}
	return name
}
