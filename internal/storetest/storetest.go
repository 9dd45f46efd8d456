// ABOUTME: Shared conformance suite every note store backend must pass.
// ABOUTME: Checks CRUD semantics, id allocation, and native listing against the in-memory engine.

package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/harper/notes/internal/models"
	"github.com/harper/notes/internal/notes"
	"github.com/harper/notes/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// Factory opens a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) notes.Store

var epoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// Run executes the full suite against stores produced by open.
func Run(t *testing.T, open Factory) {
	t.Run("InsertGet", func(t *testing.T) { testInsertGet(t, open) })
	t.Run("MissingIDs", func(t *testing.T) { testMissing(t, open) })
	t.Run("UpdateReplaces", func(t *testing.T) { testUpdate(t, open) })
	t.Run("DeleteThenUpdate", func(t *testing.T) { testDeleteThenUpdate(t, open) })
	t.Run("IDsNeverReused", func(t *testing.T) { testIDs(t, open) })
	t.Run("Scan", func(t *testing.T) { testScan(t, open) })
	t.Run("ListMatchesEngine", func(t *testing.T) { testListMatchesEngine(t, open) })
	t.Run("ListUnicodeFilter", func(t *testing.T) { testListUnicode(t, open) })
}

func withStore(t *testing.T, open Factory) notes.Store {
	t.Helper()
	s := open(t)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testInsertGet(t *testing.T, open Factory) {
	s := withStore(t, open)
	ctx := context.Background()

	note := models.NewNote("Title", "Body with ünïcode")
	require.NoError(t, s.Insert(ctx, note))
	require.NotZero(t, note.ID)

	got, err := s.Get(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, note.ID, got.ID)
	assert.Equal(t, note.Title, got.Title)
	assert.Equal(t, note.Content, got.Content)
	assert.True(t, note.CreatedAt.Equal(got.CreatedAt), "created %v != %v", note.CreatedAt, got.CreatedAt)
	assert.Nil(t, got.UpdatedAt)
}

func testMissing(t *testing.T, open Factory) {
	s := withStore(t, open)
	ctx := context.Background()

	_, err := s.Get(ctx, 999)
	assert.ErrorIs(t, err, models.ErrNoteNotFound)

	err = s.Update(ctx, &models.Note{ID: 999, Title: "x", CreatedAt: epoch})
	assert.ErrorIs(t, err, models.ErrNoteNotFound)

	assert.ErrorIs(t, s.Delete(ctx, 999), models.ErrNoteNotFound)
}

func testUpdate(t *testing.T, open Factory) {
	s := withStore(t, open)
	ctx := context.Background()

	note := models.NewNote("before", "old")
	require.NoError(t, s.Insert(ctx, note))

	note.Title = "after"
	note.Content = "new"
	note.Touch()
	require.NoError(t, s.Update(ctx, note))

	got, err := s.Get(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Title)
	assert.Equal(t, "new", got.Content)
	require.NotNil(t, got.UpdatedAt)
	assert.True(t, note.UpdatedAt.Equal(*got.UpdatedAt))
	assert.True(t, note.CreatedAt.Equal(got.CreatedAt))
}

func testDeleteThenUpdate(t *testing.T, open Factory) {
	s := withStore(t, open)
	ctx := context.Background()

	note := models.NewNote("racy", "")
	require.NoError(t, s.Insert(ctx, note))
	require.NoError(t, s.Delete(ctx, note.ID))

	note.Touch()
	assert.ErrorIs(t, s.Update(ctx, note), models.ErrNoteNotFound)
	assert.ErrorIs(t, s.Delete(ctx, note.ID), models.ErrNoteNotFound)
}

func testIDs(t *testing.T, open Factory) {
	s := withStore(t, open)
	ctx := context.Background()

	var last int64
	for i := 0; i < 5; i++ {
		note := models.NewNote(fmt.Sprintf("n%d", i), "")
		require.NoError(t, s.Insert(ctx, note))
		assert.Greater(t, note.ID, last)
		last = note.ID
		if i%2 == 0 {
			require.NoError(t, s.Delete(ctx, note.ID))
		}
	}
}

func testScan(t *testing.T, open Factory) {
	s := withStore(t, open)
	ctx := context.Background()

	want := map[int64]string{}
	for i := 0; i < 4; i++ {
		note := models.NewNote(fmt.Sprintf("scan %d", i), "")
		require.NoError(t, s.Insert(ctx, note))
		want[note.ID] = note.Title
	}

	got := map[int64]string{}
	err := s.Scan(ctx, func(n *models.Note) error {
		got[n.ID] = n.Title
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	stop := fmt.Errorf("stop")
	err = s.Scan(ctx, func(*models.Note) error { return stop })
	assert.ErrorIs(t, err, stop)
}

// testListMatchesEngine checks a native Lister against query.Apply over a
// scan of the same data. Stores without native listing are skipped.
func testListMatchesEngine(t *testing.T, open Factory) {
	probe := open(t)
	_, native := probe.(notes.Lister)
	_ = probe.Close()
	if !native {
		t.Skip("store has no native listing")
	}

	titles := []string{"alpha", "Beta", "ALPHA beta", "gamma", "Zeta"}
	rapid.Check(t, func(rt *rapid.T) {
		s := open(t)
		defer func() { _ = s.Close() }()
		ctx := context.Background()

		var all []*models.Note
		n := rapid.IntRange(0, 15).Draw(rt, "n")
		for i := 0; i < n; i++ {
			note := &models.Note{
				Title:     rapid.SampledFrom(titles).Draw(rt, "title"),
				Content:   rapid.SampledFrom(titles).Draw(rt, "content"),
				CreatedAt: epoch.Add(time.Duration(rapid.IntRange(0, 3).Draw(rt, "created")) * time.Second),
			}
			if rapid.Bool().Draw(rt, "updated") {
				u := note.CreatedAt.Add(time.Duration(rapid.IntRange(0, 3).Draw(rt, "delta")) * time.Second)
				note.UpdatedAt = &u
			}
			if err := s.Insert(ctx, note); err != nil {
				rt.Fatalf("insert: %v", err)
			}
			all = append(all, note)
		}

		q, err := query.Params{
			Filter:   rapid.SampledFrom([]string{"", "alpha", "BETA", "a", "nope"}).Draw(rt, "filter"),
			Page:     rapid.IntRange(1, 4).Draw(rt, "page"),
			PageSize: rapid.IntRange(1, 6).Draw(rt, "pageSize"),
			Sort:     rapid.SampledFrom([]string{"id", "title", "created", "updated"}).Draw(rt, "sort"),
			Dir:      rapid.SampledFrom([]string{"asc", "desc"}).Draw(rt, "dir"),
		}.Parse()
		if err != nil {
			rt.Fatalf("parse: %v", err)
		}

		want := query.Apply(all, q)
		got, err := s.(notes.Lister).List(ctx, q)
		if err != nil {
			rt.Fatalf("list: %v", err)
		}
		if got.Total != want.Total {
			rt.Fatalf("total %d, want %d", got.Total, want.Total)
		}
		if fmt.Sprint(idsOf(got.Items)) != fmt.Sprint(idsOf(want.Items)) {
			rt.Fatalf("items %v, want %v", idsOf(got.Items), idsOf(want.Items))
		}
	})
}

func testListUnicode(t *testing.T, open Factory) {
	s := withStore(t, open)
	ctx := context.Background()

	for _, title := range []string{"ÉCOLE primaire", "Straße", "plain"} {
		require.NoError(t, s.Insert(ctx, models.NewNote(title, "")))
	}

	q, err := query.Params{Filter: "école", PageSize: 10}.Parse()
	require.NoError(t, err)

	var page query.Page
	if l, ok := s.(notes.Lister); ok {
		page, err = l.List(ctx, q)
		require.NoError(t, err)
	} else {
		var all []*models.Note
		require.NoError(t, s.Scan(ctx, func(n *models.Note) error {
			all = append(all, n)
			return nil
		}))
		page = query.Apply(all, q)
	}
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "ÉCOLE primaire", page.Items[0].Title)
}

func idsOf(items []*models.Note) []int64 {
	out := make([]int64, len(items))
	for i, n := range items {
		out[i] = n.ID
	}
	return out
}
