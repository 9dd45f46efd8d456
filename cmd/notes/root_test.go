// ABOUTME: End-to-end tests running the notes CLI in-process against a temp SQLite store.
// ABOUTME: Covers CRUD commands, listing, export and import round trips, and error paths.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harper/notes/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points config and data at fresh temp dirs so runs never touch the
// user's notes.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("NOTES_STORE", "sqlite")
	t.Setenv("NOTES_LOG_LEVEL", "error")
	t.Setenv("EDITOR", "false")
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := execute(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return out.String() + errOut.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, "", args...)
	require.NoError(t, err, out)
	return out
}

func showJSON(t *testing.T, id string) models.Note {
	t.Helper()
	var note models.Note
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "show", "--json", id)), &note))
	return note
}

func TestAddShowEditRemove(t *testing.T) {
	isolate(t)

	out := mustRun(t, "add", "  Groceries  ", "--content", "milk")
	assert.Contains(t, out, "Created note 1")

	note := showJSON(t, "1")
	assert.Equal(t, "Groceries", note.Title)
	assert.Equal(t, "milk", note.Content)
	assert.Nil(t, note.UpdatedAt)

	out = mustRun(t, "show", "1")
	assert.Contains(t, out, "Groceries")

	mustRun(t, "edit", "1", "--title", "Shopping")
	note = showJSON(t, "1")
	assert.Equal(t, "Shopping", note.Title)
	assert.Equal(t, "milk", note.Content, "content kept when only the title changes")
	require.NotNil(t, note.UpdatedAt)

	out = mustRun(t, "edit", "1", "--title", "Shopping")
	assert.Contains(t, out, "No changes made.")

	out = mustRun(t, "rm", "--force", "1")
	assert.Contains(t, out, "Deleted note 1")

	_, err := run(t, "", "show", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "note 1 not found")

	out = mustRun(t, "rm", "--force", "1")
	assert.Contains(t, out, "does not exist")
}

func TestAddFromStdin(t *testing.T) {
	isolate(t)
	_, err := run(t, "from a pipe\n", "add", "Piped", "--file", "-")
	require.NoError(t, err)
	assert.Equal(t, "from a pipe\n", showJSON(t, "1").Content)
}

func TestAddValidation(t *testing.T) {
	isolate(t)
	_, err := run(t, "", "add", "   ", "--content", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title is required")
}

func TestRmAsksForConfirmation(t *testing.T) {
	isolate(t)
	mustRun(t, "add", "Keep me", "--content", "")

	out, err := run(t, "n\n", "rm", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")
	showJSON(t, "1")

	out, err = run(t, "yes\n", "rm", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted note 1")
}

func TestListPaging(t *testing.T) {
	isolate(t)
	for _, title := range []string{"beta", "alpha", "delta", "gamma"} {
		mustRun(t, "add", title, "--content", "")
	}

	var page listOutput
	out := mustRun(t, "list", "--json", "--sort", "title", "--dir", "asc", "--page", "2", "--page-size", "3")
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, 4, page.Total)
	require.Len(t, page.Notes, 1)
	assert.Equal(t, "gamma", page.Notes[0].Title)

	out = mustRun(t, "list", "-q", "ALP")
	assert.Contains(t, out, "alpha")
	assert.NotContains(t, out, "beta")
	assert.Contains(t, out, "Showing 1-1 of 1")

	_, err := run(t, "", "list", "--sort", "color")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid sort key")
}

func TestExportImportJSON(t *testing.T) {
	isolate(t)
	mustRun(t, "add", "One", "--content", "first")
	mustRun(t, "add", "Two", "--content", "second")

	path := filepath.Join(t.TempDir(), "notes.json")
	mustRun(t, "export", "--output", path)

	var export ExportData
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &export))
	require.Len(t, export.Notes, 2)
	assert.Equal(t, "One", export.Notes[0].Title)
	assert.EqualValues(t, 1, export.Notes[0].ID)

	out := mustRun(t, "import", path)
	assert.Contains(t, out, "Imported 2 notes")

	var page listOutput
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "list", "--json")), &page))
	assert.Equal(t, 4, page.Total)
}

func TestExportImportMarkdown(t *testing.T) {
	isolate(t)
	mustRun(t, "add", "Plan: v2", "--content", "# Steps\n\n1. ship")

	dir := filepath.Join(t.TempDir(), "md")
	mustRun(t, "export", "--format", "md", "--output", dir)

	data, err := os.ReadFile(filepath.Join(dir, "1-Plan- v2.md"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "---\nid: 1\n"), string(data))
	assert.Contains(t, string(data), "Plan: v2")
	assert.True(t, strings.HasSuffix(string(data), "---\n\n# Steps\n\n1. ship"))

	out := mustRun(t, "import", dir)
	assert.Contains(t, out, "Imported 1 notes")

	imported := showJSON(t, "2")
	assert.Equal(t, "Plan: v2", imported.Title)
	assert.Equal(t, "# Steps\n\n1. ship", imported.Content)
}

func TestExportUnknownFormat(t *testing.T) {
	isolate(t)
	_, err := run(t, "", "export", "--format", "xml")
	assert.Error(t, err)
}

func TestBadIDAndStore(t *testing.T) {
	isolate(t)

	_, err := run(t, "", "show", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ids are integers")

	_, err = run(t, "", "--store", "mysql", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store")
}

func TestSyncNeedsCharm(t *testing.T) {
	isolate(t)
	_, err := run(t, "", "sync")
	assert.ErrorIs(t, err, errNoCharm)
}

func TestBadgerStoreFromFlag(t *testing.T) {
	isolate(t)
	mustRun(t, "--store", "badger", "add", "In badger", "--content", "kv")
	assert.Equal(t, "In badger", func() string {
		var note models.Note
		require.NoError(t, json.Unmarshal([]byte(mustRun(t, "--store", "badger", "show", "--json", "1")), &note))
		return note.Title
	}())

	_, err := run(t, "", "show", "1")
	assert.Error(t, err, "sqlite store is separate from badger")
}
