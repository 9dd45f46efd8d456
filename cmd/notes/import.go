// ABOUTME: Import command for restoring notes from backup.
// ABOUTME: Reads an export JSON file, a markdown file, or a directory of markdown files.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/harper/notes/internal/notes"
	"github.com/harper/notes/internal/ui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <path>",
		Short: "Import notes",
		Long: `Import notes from a JSON export or from markdown files. Imported notes get
fresh ids and creation times; the originals are not preserved.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			imp := importer{svc: a.svc, warn: cmd.ErrOrStderr()}

			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("failed to stat path: %w", err)
			}

			var count int
			switch {
			case info.IsDir():
				count, err = imp.markdownDir(cmd.Context(), path)
			case strings.HasSuffix(path, ".json"):
				count, err = imp.jsonFile(cmd.Context(), path)
			default:
				err = imp.markdownFile(cmd.Context(), path)
				if err == nil {
					count = 1
				}
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("Imported %d notes", count)))
			return nil
		},
	}
}

type importer struct {
	svc  *notes.Service
	warn io.Writer
}

func (i importer) jsonFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-specified file path is expected CLI behavior
	if err != nil {
		return 0, err
	}

	var export ExportData
	if err := json.Unmarshal(data, &export); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}

	count := 0
	for _, en := range export.Notes {
		if _, err := i.svc.Create(ctx, en.Title, en.Content); err != nil {
			fmt.Fprintf(i.warn, "Warning: failed to import %q: %v\n", en.Title, err)
			continue
		}
		count++
	}
	return count, nil
}

func (i importer) markdownDir(ctx context.Context, dir string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}

		if err := i.markdownFile(ctx, path); err != nil {
			fmt.Fprintf(i.warn, "Warning: failed to import %s: %v\n", path, err)
			return nil
		}
		count++
		return nil
	})
	return count, err
}

// markdownFile takes the title from YAML front matter when present, else
// from the file name.
func (i importer) markdownFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // User-specified file path is expected CLI behavior
	if err != nil {
		return err
	}

	content := string(data)
	var title string

	if strings.HasPrefix(content, "---\n") {
		parts := strings.SplitN(content, "---\n", 3)
		if len(parts) == 3 {
			var frontmatter struct {
				Title string `yaml:"title"`
			}
			if err := yaml.Unmarshal([]byte(parts[1]), &frontmatter); err == nil {
				title = frontmatter.Title
				content = parts[2]
			}
		}
	}

	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), ".md")
	}

	_, err = i.svc.Create(ctx, title, strings.TrimSpace(content))
	return err
}
