// ABOUTME: Tests for the listing query engine.
// ABOUTME: Covers parsing, clamping, filtering, ordering, and paging properties.

package query

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/harper/notes/internal/models"
	"github.com/harper/notes/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func note(id int64, title, content string, created time.Time, updated *time.Time) *models.Note {
	return &models.Note{ID: id, Title: title, Content: content, CreatedAt: created, UpdatedAt: updated}
}

func at(d time.Duration) *time.Time {
	t := base.Add(d)
	return &t
}

// tb is satisfied by both *testing.T and *rapid.T.
type tb interface {
	Helper()
	Errorf(format string, args ...any)
	FailNow()
}

func mustParse(t tb, p Params) Query {
	t.Helper()
	q, err := p.Parse()
	require.NoError(t, err)
	return q
}

func ids(notes []*models.Note) []int64 {
	out := make([]int64, len(notes))
	for i, n := range notes {
		out[i] = n.ID
	}
	return out
}

func TestParseDefaults(t *testing.T) {
	q := mustParse(t, Params{})
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 1, q.PageSize)
	assert.Equal(t, SortUpdated, q.Sort)
	assert.Equal(t, Desc, q.Dir)
}

func TestParseClamping(t *testing.T) {
	tests := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{0, 10, 1, 10},
		{-5, 10, 1, 10},
		{3, 0, 3, 1},
		{3, -1, 3, 1},
		{1, 1000, 1, 100},
		{1, 100, 1, 100},
		{2, 50, 2, 50},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("page=%d,size=%d", tt.page, tt.size), func(t *testing.T) {
			q := mustParse(t, Params{Page: tt.page, PageSize: tt.size})
			assert.Equal(t, tt.wantPage, q.Page)
			assert.Equal(t, tt.wantSize, q.PageSize)
		})
	}
}

func TestParseSortKeys(t *testing.T) {
	tests := map[string]SortKey{
		"id":        SortID,
		"ID":        SortID,
		"title":     SortTitle,
		"Title":     SortTitle,
		"created":   SortCreated,
		"createdAt": SortCreated,
		"CREATEDAT": SortCreated,
		"updated":   SortUpdated,
		"updatedAt": SortUpdated,
		" updated ": SortUpdated,
	}
	for in, want := range tests {
		q := mustParse(t, Params{Sort: in, Dir: "ASC"})
		assert.Equal(t, want, q.Sort, "sort %q", in)
		assert.Equal(t, Asc, q.Dir)
	}
}

func TestParseRejectsUnknownSortAndDir(t *testing.T) {
	_, err := Params{Sort: "bogus"}.Parse()
	var verr *validate.Error
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "invalid sort key", verr.Fields[0].Message)

	_, err = Params{Dir: "sideways"}.Parse()
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "invalid sort direction", verr.Fields[0].Message)

	_, err = Params{Sort: "bogus", Dir: "sideways"}.Parse()
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.Has("sort"))
	assert.True(t, verr.Has("dir"))
}

func TestOffsetDoesNotOverflow(t *testing.T) {
	q := mustParse(t, Params{Page: int(^uint(0) >> 1), PageSize: 100})
	assert.Greater(t, q.Offset(), 0)

	page := Apply([]*models.Note{note(1, "a", "", base, nil)}, q)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.Total)
}

func TestFilterCaseInsensitive(t *testing.T) {
	all := []*models.Note{
		note(1, "Shopping List", "eggs", base, nil),
		note(2, "Work", "ship the release", base, nil),
		note(3, "Other", "nothing", base, nil),
	}
	for _, term := range []string{"SHOP", "shop", "Shopping", "  shop  "} {
		page := Apply(all, mustParse(t, Params{Filter: term, PageSize: 10}))
		assert.Equal(t, []int64{1}, ids(page.Items), "filter %q", term)
	}

	page := Apply(all, mustParse(t, Params{Filter: "SHI", PageSize: 10}))
	assert.Equal(t, []int64{2}, ids(page.Items), "content matches too")

	page = Apply(all, mustParse(t, Params{Filter: "   ", PageSize: 10}))
	assert.Equal(t, 3, page.Total, "blank filter keeps everything")
}

func TestOrdering(t *testing.T) {
	all := []*models.Note{
		note(1, "banana", "", base, at(3*time.Hour)),
		note(2, "apple", "", base.Add(time.Hour), nil),
		note(3, "cherry", "", base.Add(2*time.Hour), at(2*time.Hour+30*time.Minute)),
		note(4, "apple", "", base.Add(30*time.Minute), nil),
	}

	tests := []struct {
		sort, dir string
		want      []int64
	}{
		{"id", "asc", []int64{1, 2, 3, 4}},
		{"id", "desc", []int64{4, 3, 2, 1}},
		{"title", "asc", []int64{2, 4, 1, 3}},
		{"title", "desc", []int64{3, 1, 4, 2}},
		{"created", "asc", []int64{1, 4, 2, 3}},
		{"created", "desc", []int64{3, 2, 4, 1}},
		// updated coalesces: 1=+3h, 2=+1h, 3=+2.5h, 4=+30m
		{"updated", "asc", []int64{4, 2, 3, 1}},
		{"updated", "desc", []int64{1, 3, 2, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.sort+"-"+tt.dir, func(t *testing.T) {
			page := Apply(all, mustParse(t, Params{Sort: tt.sort, Dir: tt.dir, PageSize: 10}))
			assert.Equal(t, tt.want, ids(page.Items))
		})
	}
}

func TestUpdatedCoalescesToCreatedNotSentinel(t *testing.T) {
	// Never-updated note created between two updated notes stays between them.
	all := []*models.Note{
		note(1, "old", "", base, at(time.Hour)),
		note(2, "fresh", "", base.Add(2*time.Hour), nil),
		note(3, "new", "", base, at(3*time.Hour)),
	}
	page := Apply(all, mustParse(t, Params{Sort: "updated", Dir: "asc", PageSize: 10}))
	assert.Equal(t, []int64{1, 2, 3}, ids(page.Items))
}

func TestApplyDoesNotReorderInput(t *testing.T) {
	all := []*models.Note{note(2, "b", "", base, nil), note(1, "a", "", base, nil)}
	Apply(all, mustParse(t, Params{Sort: "id", Dir: "asc", PageSize: 10}))
	assert.Equal(t, []int64{2, 1}, ids(all))
}

func TestPagingWindow(t *testing.T) {
	var all []*models.Note
	for i := int64(1); i <= 25; i++ {
		all = append(all, note(i, fmt.Sprintf("n%02d", i), "", base, nil))
	}

	page := Apply(all, mustParse(t, Params{Page: 3, PageSize: 10, Sort: "id", Dir: "asc"}))
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, []int64{21, 22, 23, 24, 25}, ids(page.Items))

	page = Apply(all, mustParse(t, Params{Page: 4, PageSize: 10, Sort: "id", Dir: "asc"}))
	assert.Equal(t, 25, page.Total)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
}

func TestClampedQueriesBehaveIdentically(t *testing.T) {
	var all []*models.Note
	for i := int64(1); i <= 150; i++ {
		all = append(all, note(i, "t", "", base.Add(time.Duration(i)*time.Second), nil))
	}

	assert.Equal(t,
		ids(Apply(all, mustParse(t, Params{Page: 1, PageSize: 10})).Items),
		ids(Apply(all, mustParse(t, Params{Page: 0, PageSize: 10})).Items))
	assert.Equal(t,
		ids(Apply(all, mustParse(t, Params{Page: 1, PageSize: 100})).Items),
		ids(Apply(all, mustParse(t, Params{Page: 1, PageSize: 1000})).Items))
}

// genNotes draws notes with unique ids and deliberately colliding keys.
func genNotes(t *rapid.T) []*models.Note {
	n := rapid.IntRange(0, 40).Draw(t, "n")
	titles := []string{"alpha", "Beta", "gamma", "alpha beta"}
	var notes []*models.Note
	for i := 0; i < n; i++ {
		created := base.Add(time.Duration(rapid.IntRange(0, 3).Draw(t, "created")) * time.Minute)
		var updated *time.Time
		if rapid.Bool().Draw(t, "updated?") {
			u := created.Add(time.Duration(rapid.IntRange(0, 3).Draw(t, "updated")) * time.Minute)
			updated = &u
		}
		notes = append(notes, note(int64(i+1), rapid.SampledFrom(titles).Draw(t, "title"), rapid.SampledFrom(titles).Draw(t, "content"), created, updated))
	}
	return notes
}

func genParams(t *rapid.T) Params {
	return Params{
		Filter:   rapid.SampledFrom([]string{"", "ALPHA", "beta", "mm", "zzz"}).Draw(t, "filter"),
		PageSize: rapid.IntRange(1, 7).Draw(t, "pageSize"),
		Sort:     rapid.SampledFrom([]string{"id", "title", "created", "updated"}).Draw(t, "sort"),
		Dir:      rapid.SampledFrom([]string{"asc", "desc"}).Draw(t, "dir"),
	}
}

func TestPagesPartitionTheFilteredSet(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		all := genNotes(t)
		p := genParams(t)

		full := Apply(all, mustParse(t, Params{Filter: p.Filter, PageSize: MaxPageSize, Sort: p.Sort, Dir: p.Dir}))

		seen := map[int64]bool{}
		var walked []int64
		for page := 1; ; page++ {
			p.Page = page
			res := Apply(all, mustParse(t, p))
			if res.Total != full.Total {
				t.Fatalf("total %d on page %d, want %d", res.Total, page, full.Total)
			}
			if len(res.Items) == 0 {
				break
			}
			for _, n := range res.Items {
				if seen[n.ID] {
					t.Fatalf("note %d appeared twice", n.ID)
				}
				seen[n.ID] = true
				walked = append(walked, n.ID)
			}
		}

		if fmt.Sprint(walked) != fmt.Sprint(ids(full.Items)) {
			t.Fatalf("paged order %v differs from full order %v", walked, ids(full.Items))
		}
	})
}

func TestTotalCountsFilterMatches(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		all := genNotes(t)
		p := genParams(t)
		p.Page = rapid.IntRange(-2, 10).Draw(t, "page")

		q := mustParse(t, p)
		want := 0
		for _, n := range all {
			if Matches(n, q.Term()) {
				want++
			}
		}
		if got := Apply(all, q).Total; got != want {
			t.Fatalf("total %d, want %d", got, want)
		}
	})
}

func TestStablePaginationUnderTies(t *testing.T) {
	var all []*models.Note
	for i := int64(1); i <= 9; i++ {
		all = append(all, note(i, "same", "", base, at(time.Hour)))
	}

	var walked []int64
	for page := 1; page <= 9; page++ {
		res := Apply(all, mustParse(t, Params{Page: page, PageSize: 1}))
		require.Len(t, res.Items, 1)
		walked = append(walked, res.Items[0].ID)
	}
	assert.Equal(t, []int64{9, 8, 7, 6, 5, 4, 3, 2, 1}, walked)
}
