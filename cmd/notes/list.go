// ABOUTME: List command for paging through notes.
// ABOUTME: Filters by substring and sorts by updated, created, title or id.

package main

import (
	"encoding/json"
	"fmt"

	"github.com/harper/notes/internal/models"
	"github.com/harper/notes/internal/query"
	"github.com/harper/notes/internal/ui"
	"github.com/spf13/cobra"
)

type listOutput struct {
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
	Notes    []*models.Note `json:"notes"`
}

func newListCmd(a *app) *cobra.Command {
	var p query.Params
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List notes",
		Long: `List notes one page at a time. --query keeps notes whose title or content
contains the text, ignoring case.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := a.svc.List(cmd.Context(), p)
			if err != nil {
				return fmt.Errorf("failed to list notes: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(listOutput{Total: page.Total, Page: page.Page, PageSize: page.PageSize, Notes: page.Items})
			}

			for _, note := range page.Items {
				fmt.Fprint(out, ui.FormatNoteListItem(note))
			}
			fmt.Fprint(out, ui.FormatPageFooter(page))
			return nil
		},
	}
	cmd.Flags().StringVarP(&p.Filter, "query", "q", "", "only notes containing this text")
	cmd.Flags().IntVarP(&p.Page, "page", "p", query.DefaultPage, "page number")
	cmd.Flags().IntVarP(&p.PageSize, "page-size", "n", query.DefaultPageSize, "notes per page (max 100)")
	cmd.Flags().StringVarP(&p.Sort, "sort", "s", "updated", "sort key: updated, created, title, id")
	cmd.Flags().StringVarP(&p.Dir, "dir", "d", "desc", "sort direction: asc, desc")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the page as JSON")
	return cmd
}
